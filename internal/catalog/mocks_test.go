package catalog

import (
	"context"

	"bookshelf/internal/openlibrary"
	"bookshelf/internal/storage"
)

// This file contains mocks definitions needed to perform unit tests.

type MockService struct {
	AddBookFunc    func(ctx context.Context, rawISBN string) (*Book, error)
	GetBookFunc    func(ctx context.Context, rawISBN string) (*Book, error)
	ListBooksFunc  func(ctx context.Context, filter Filter, page storage.Page) ([]Book, int, error)
	DeleteBookFunc func(ctx context.Context, rawISBN string) (string, error)
	CountBooksFunc func(ctx context.Context) (int, error)
}

func (m *MockService) AddBook(ctx context.Context, rawISBN string) (*Book, error) {
	return m.AddBookFunc(ctx, rawISBN)
}

func (m *MockService) GetBook(ctx context.Context, rawISBN string) (*Book, error) {
	return m.GetBookFunc(ctx, rawISBN)
}

func (m *MockService) ListBooks(ctx context.Context, filter Filter, page storage.Page) ([]Book, int, error) {
	return m.ListBooksFunc(ctx, filter, page)
}

func (m *MockService) DeleteBook(ctx context.Context, rawISBN string) (string, error) {
	return m.DeleteBookFunc(ctx, rawISBN)
}

func (m *MockService) CountBooks(ctx context.Context) (int, error) {
	return m.CountBooksFunc(ctx)
}

// MockFetcher mocks the metadata lookup and records the requested ISBNs.
type MockFetcher struct {
	LookupFunc func(ctx context.Context, isbn string) (openlibrary.Metadata, error)
	Calls      []string
}

func (m *MockFetcher) Lookup(ctx context.Context, isbn string) (openlibrary.Metadata, error) {
	m.Calls = append(m.Calls, isbn)
	return m.LookupFunc(ctx, isbn)
}
