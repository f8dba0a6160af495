package catalog

import (
	"fmt"
	"time"

	"bookshelf/internal/apperr"
)

// Status is the availability of the single copy of a book.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBorrowed  Status = "borrowed"
)

// ParseStatus validates a status filter value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAvailable, StatusBorrowed:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q: expected %q or %q: %w", s, StatusAvailable, StatusBorrowed, apperr.ErrValidation)
}

// Book represents a title held by the library, keyed by its normalized ISBN.
type Book struct {
	ISBN      string    `json:"isbn" db:"isbn"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Filter narrows a book listing. Empty fields match everything. Author and
// Title are case-insensitive substrings, Status is matched exactly.
type Filter struct {
	Author string
	Title  string
	Status Status
}
