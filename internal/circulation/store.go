package circulation

import (
	"context"
	"fmt"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/storage"

	"github.com/doug-martin/goqu/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const recordsTable = "borrow_records"

var recordColumns = []interface{}{"id", "member_id", "isbn", "borrow_date", "return_date"}

// Store is the borrow ledger. Writes take a storage.Querier so they run inside
// the caller's transaction.
type Store struct {
	db     *storage.DB
	tracer trace.Tracer
}

// NewStore creates a ledger on db.
func NewStore(db *storage.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("bookshelf/circulation"),
	}
}

// Insert appends rec and sets its generated ID. A second open record for the
// same ISBN is rejected with apperr.ErrConflict.
func (s *Store) Insert(ctx context.Context, q storage.Querier, rec *Record) error {
	id, err := s.db.InsertID(ctx, q, s.db.Insert(recordsTable).Rows(goqu.Record{
		"member_id":   rec.MemberID,
		"isbn":        rec.ISBN,
		"borrow_date": rec.BorrowDate,
		"return_date": rec.ReturnDate,
	}))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("book with ISBN %s is already borrowed: %w", rec.ISBN, apperr.ErrConflict)
	}
	if storage.IsForeignKeyViolation(err) {
		return fmt.Errorf("member %d or book %s: %w", rec.MemberID, rec.ISBN, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert borrow record: %w", err)
	}
	rec.ID = id
	return nil
}

// FindOpen returns the open record of memberID for isbn.
func (s *Store) FindOpen(ctx context.Context, q storage.Querier, memberID int64, isbn string) (*Record, error) {
	rec := &Record{}
	err := storage.Get(ctx, q, rec, s.db.From(recordsTable).Select(recordColumns...).Where(
		goqu.C("member_id").Eq(memberID),
		goqu.C("isbn").Eq(isbn),
		goqu.C("return_date").IsNull(),
	))
	if storage.IsNoRows(err) {
		return nil, fmt.Errorf("no active borrow of %s by member %d: %w", isbn, memberID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find open borrow: %w", err)
	}
	return rec, nil
}

// Close sets the return date of an open record. It reports false when the
// record was already closed.
func (s *Store) Close(ctx context.Context, q storage.Querier, id int64, at time.Time) (bool, error) {
	n, err := storage.Exec(ctx, q, s.db.Update(recordsTable).
		Set(goqu.Record{"return_date": at}).
		Where(goqu.C("id").Eq(id), goqu.C("return_date").IsNull()))
	if err != nil {
		return false, fmt.Errorf("close borrow record: %w", err)
	}
	return n == 1, nil
}

// List returns the records matching filter, newest first.
func (s *Store) List(ctx context.Context, q storage.Querier, filter HistoryFilter) ([]Record, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.history",
		trace.WithAttributes(
			attribute.Int64("member.id", filter.MemberID),
			attribute.String("book.isbn", filter.ISBN),
			attribute.Bool("active_only", filter.ActiveOnly),
		),
	)
	defer span.End()

	ds := s.db.From(recordsTable).Select(recordColumns...)
	if filter.MemberID != 0 {
		ds = ds.Where(goqu.C("member_id").Eq(filter.MemberID))
	}
	if filter.ISBN != "" {
		ds = ds.Where(goqu.C("isbn").Eq(filter.ISBN))
	}
	if filter.ActiveOnly {
		ds = ds.Where(goqu.C("return_date").IsNull())
	}

	records := make([]Record, 0)
	ds = ds.Order(goqu.C("borrow_date").Desc(), goqu.C("id").Desc())
	if err := storage.Select(ctx, q, &records, ds); err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	span.SetAttributes(attribute.Int("result.count", len(records)))
	return records, nil
}
