// Package apperr holds the error kinds shared by every layer of the service.
// Callers wrap them with fmt.Errorf("...: %w") and transports map them with errors.Is.
package apperr

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrMetadataNotFound    = errors.New("book metadata not found")
	ErrMetadataUnavailable = errors.New("book metadata source unavailable")
)

// Kind returns the sentinel wrapped by err, or nil when err carries none of them.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrMetadataNotFound, ErrMetadataUnavailable} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
