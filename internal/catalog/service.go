package catalog

import (
	"context"

	"bookshelf/internal/openlibrary"
	"bookshelf/internal/storage"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, rawISBN string) (*Book, error)
	GetBook(ctx context.Context, rawISBN string) (*Book, error)
	ListBooks(ctx context.Context, filter Filter, page storage.Page) ([]Book, int, error)
	DeleteBook(ctx context.Context, rawISBN string) (string, error)
	CountBooks(ctx context.Context) (int, error)
}

// MetadataFetcher resolves a normalized ISBN to bibliographic data.
type MetadataFetcher interface {
	Lookup(ctx context.Context, isbn string) (openlibrary.Metadata, error)
}

// Repository is the persistence used by the catalog service.
type Repository interface {
	Create(ctx context.Context, book *Book) error
	Get(ctx context.Context, isbn string) (*Book, error)
	List(ctx context.Context, filter Filter, page storage.Page) ([]Book, int, error)
	Delete(ctx context.Context, isbn string) error
	Count(ctx context.Context) (int, error)
}
