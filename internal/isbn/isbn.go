// Package isbn canonicalises user supplied ISBNs.
package isbn

import (
	"fmt"
	"strings"
	"unicode"

	"bookshelf/internal/apperr"
)

// Normalize removes hyphens and whitespace from raw and accepts the result only
// when it is exactly 10 or 13 ASCII digits. Check digits are not verified and
// the ISBN-10 'X' check character is rejected.
func Normalize(raw string) (string, error) {
	stripped := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if len(stripped) != 10 && len(stripped) != 13 {
		return "", fmt.Errorf("invalid ISBN %q: expected 10 or 13 digits: %w", raw, apperr.ErrValidation)
	}
	for i := 0; i < len(stripped); i++ {
		if stripped[i] < '0' || stripped[i] > '9' {
			return "", fmt.Errorf("invalid ISBN %q: only digits, hyphens and spaces are allowed: %w", raw, apperr.ErrValidation)
		}
	}
	return stripped, nil
}
