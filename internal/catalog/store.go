package catalog

import (
	"context"
	"fmt"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const booksTable = "books"

var bookColumns = []interface{}{"isbn", "title", "author", "status", "created_at"}

// Store persists books.
type Store struct {
	db     *storage.DB
	tracer trace.Tracer
}

// NewStore creates a book store on db.
func NewStore(db *storage.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("bookshelf/catalog"),
	}
}

// Create inserts book. It fails with apperr.ErrConflict when the ISBN exists.
func (s *Store) Create(ctx context.Context, book *Book) error {
	ctx, span := s.tracer.Start(ctx, "catalog.create",
		trace.WithAttributes(attribute.String("book.isbn", book.ISBN)),
	)
	defer span.End()

	_, err := storage.Exec(ctx, s.db, s.db.Insert(booksTable).Rows(goqu.Record{
		"isbn":       book.ISBN,
		"title":      book.Title,
		"author":     book.Author,
		"status":     string(book.Status),
		"created_at": book.CreatedAt,
	}))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("book with ISBN %s already exists: %w", book.ISBN, apperr.ErrConflict)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// Get returns the book stored under isbn.
func (s *Store) Get(ctx context.Context, isbn string) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get",
		trace.WithAttributes(attribute.String("book.isbn", isbn)),
	)
	defer span.End()

	book := &Book{}
	err := storage.Get(ctx, s.db, book, s.db.From(booksTable).Select(bookColumns...).Where(goqu.C("isbn").Eq(isbn)))
	if storage.IsNoRows(err) {
		return nil, fmt.Errorf("book with ISBN %s: %w", isbn, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

func containsFold(column, value string) exp.LiteralExpression {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(value))
	return goqu.L(fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column), "%"+escaped+"%")
}

// List returns the page of books matching filter, ordered by insertion, along
// with the number of books matching filter regardless of the page.
func (s *Store) List(ctx context.Context, filter Filter, page storage.Page) ([]Book, int, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.list",
		trace.WithAttributes(
			attribute.String("filter.author", filter.Author),
			attribute.String("filter.title", filter.Title),
			attribute.String("filter.status", string(filter.Status)),
			attribute.Int("page.skip", page.Skip),
			attribute.Int("page.limit", page.Limit),
		),
	)
	defer span.End()

	ds := s.db.From(booksTable)
	if filter.Author != "" {
		ds = ds.Where(containsFold("author", filter.Author))
	}
	if filter.Title != "" {
		ds = ds.Where(containsFold("title", filter.Title))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(filter.Status)))
	}

	total, err := storage.Count(ctx, s.db, ds)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	books := make([]Book, 0)
	ds = ds.Select(bookColumns...).Order(goqu.C("created_at").Asc(), goqu.C("isbn").Asc())
	if err := storage.Select(ctx, s.db, &books, page.Apply(ds)); err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	span.SetAttributes(attribute.Int("result.total", total), attribute.Int("result.count", len(books)))
	return books, total, nil
}

// Delete removes the book and its closed borrow history. A borrowed book
// cannot be deleted and yields apperr.ErrConflict.
func (s *Store) Delete(ctx context.Context, isbn string) error {
	ctx, span := s.tracer.Start(ctx, "catalog.delete",
		trace.WithAttributes(attribute.String("book.isbn", isbn)),
	)
	defer span.End()

	n, err := storage.Exec(ctx, s.db, s.db.Delete(booksTable).Where(
		goqu.C("isbn").Eq(isbn),
		goqu.C("status").Eq(string(StatusAvailable)),
	))
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n == 1 {
		return nil
	}

	exists, err := s.Exists(ctx, s.db, isbn)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("book with ISBN %s: %w", isbn, apperr.ErrNotFound)
	}
	return fmt.Errorf("book with ISBN %s is currently borrowed: %w", isbn, apperr.ErrConflict)
}

// Count returns the number of books in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := storage.Count(ctx, s.db, s.db.From(booksTable))
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// Exists reports whether isbn is in the catalog, reading through q.
func (s *Store) Exists(ctx context.Context, q storage.Querier, isbn string) (bool, error) {
	n, err := storage.Count(ctx, q, s.db.From(booksTable).Where(goqu.C("isbn").Eq(isbn)))
	if err != nil {
		return false, fmt.Errorf("check book: %w", err)
	}
	return n > 0, nil
}

// MarkBorrowed flips an available book to borrowed in a single conditional
// update. It reports false when no available book with isbn exists.
func (s *Store) MarkBorrowed(ctx context.Context, q storage.Querier, isbn string) (bool, error) {
	n, err := storage.Exec(ctx, q, s.db.Update(booksTable).
		Set(goqu.Record{"status": string(StatusBorrowed)}).
		Where(goqu.C("isbn").Eq(isbn), goqu.C("status").Eq(string(StatusAvailable))))
	if err != nil {
		return false, fmt.Errorf("mark book borrowed: %w", err)
	}
	return n == 1, nil
}

// MarkAvailable sets the book back to available.
func (s *Store) MarkAvailable(ctx context.Context, q storage.Querier, isbn string) error {
	_, err := storage.Exec(ctx, q, s.db.Update(booksTable).
		Set(goqu.Record{"status": string(StatusAvailable)}).
		Where(goqu.C("isbn").Eq(isbn)))
	if err != nil {
		return fmt.Errorf("mark book available: %w", err)
	}
	return nil
}
