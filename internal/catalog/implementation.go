package catalog

import (
	"context"
	"errors"
	"fmt"

	"bookshelf/internal/apperr"
	"bookshelf/internal/clock"
	"bookshelf/internal/isbn"
	"bookshelf/internal/storage"

	"go.uber.org/zap"
)

// service implements the Service interface.
type service struct {
	repo    Repository
	fetcher MetadataFetcher
	clock   clock.Clocker
	logger  *zap.Logger
}

// NewService creates a new catalog service instance.
func NewService(repo Repository, fetcher MetadataFetcher, ck clock.Clocker, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		fetcher: fetcher,
		clock:   ck,
		logger:  logger,
	}
}

// AddBook normalizes rawISBN, resolves its metadata and stores the book as available.
func (s *service) AddBook(ctx context.Context, rawISBN string) (*Book, error) {
	code, err := isbn.Normalize(rawISBN)
	if err != nil {
		return nil, err
	}

	// Skip the outbound lookup for books already in the catalog.
	_, err = s.repo.Get(ctx, code)
	if err == nil {
		return nil, fmt.Errorf("book with ISBN %s already exists: %w", code, apperr.ErrConflict)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	md, err := s.fetcher.Lookup(ctx, code)
	if err != nil {
		s.logger.Warn("metadata lookup failed", zap.String("book.isbn", code), zap.Error(err))
		return nil, err
	}

	book := &Book{
		ISBN:      code,
		Title:     md.Title,
		Author:    md.Author,
		Status:    StatusAvailable,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info("book added",
		zap.String("book.isbn", book.ISBN),
		zap.String("book.title", book.Title),
	)
	return book, nil
}

// GetBook retrieves a book by ISBN.
func (s *service) GetBook(ctx context.Context, rawISBN string) (*Book, error) {
	code, err := isbn.Normalize(rawISBN)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, code)
}

// ListBooks returns a filtered page of the catalog and the total match count.
func (s *service) ListBooks(ctx context.Context, filter Filter, page storage.Page) ([]Book, int, error) {
	if filter.Status != "" {
		if _, err := ParseStatus(string(filter.Status)); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.List(ctx, filter, page)
}

// DeleteBook removes a book that is not currently borrowed and returns the
// normalized ISBN it was stored under.
func (s *service) DeleteBook(ctx context.Context, rawISBN string) (string, error) {
	code, err := isbn.Normalize(rawISBN)
	if err != nil {
		return "", err
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return "", err
	}
	s.logger.Info("book deleted", zap.String("book.isbn", code))
	return code, nil
}

// CountBooks returns the catalog size.
func (s *service) CountBooks(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
