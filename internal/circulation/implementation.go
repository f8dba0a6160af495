package circulation

import (
	"context"
	"errors"
	"fmt"

	"bookshelf/internal/apperr"
	"bookshelf/internal/clock"
	"bookshelf/internal/isbn"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// service implements the Service interface.
type service struct {
	db         Transactor
	books      Books
	members    Members
	ledger     Ledger
	clock      clock.Clocker
	logger     *zap.Logger
	operations metric.Int64Counter
}

// NewService creates a new circulation service instance.
func NewService(db Transactor, books Books, members Members, ledger Ledger, ck clock.Clocker, logger *zap.Logger) Service {
	operations, err := otel.Meter("bookshelf/circulation").Int64Counter(
		"bookshelf.circulation.operations",
		metric.WithDescription("Borrow and return requests by outcome."),
	)
	if err != nil {
		logger.Warn("circulation counter unavailable", zap.Error(err))
		operations = noop.Int64Counter{}
	}

	return &service{
		db:         db,
		books:      books,
		members:    members,
		ledger:     ledger,
		clock:      ck,
		logger:     logger,
		operations: operations,
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrValidation):
		return "invalid"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	}
	return "error"
}

func (s *service) record(ctx context.Context, op string, err error) {
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome(err)),
	))
}

func validMember(memberID int64) error {
	if memberID < 1 {
		return fmt.Errorf("member_id must be a positive integer: %w", apperr.ErrValidation)
	}
	return nil
}

// Borrow lends the book to the member. The availability check and the status
// change are one conditional update in the same transaction as the new record,
// so of two concurrent borrows of a book only one succeeds.
func (s *service) Borrow(ctx context.Context, memberID int64, rawISBN string) (rec *Record, err error) {
	defer func() { s.record(ctx, "borrow", err) }()

	if err := validMember(memberID); err != nil {
		return nil, err
	}
	code, err := isbn.Normalize(rawISBN)
	if err != nil {
		return nil, err
	}

	err = s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.members.Exists(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("member %d: %w", memberID, apperr.ErrNotFound)
		}

		flipped, err := s.books.MarkBorrowed(ctx, tx, code)
		if err != nil {
			return err
		}
		if !flipped {
			exists, err := s.books.Exists(ctx, tx, code)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("book with ISBN %s: %w", code, apperr.ErrNotFound)
			}
			return fmt.Errorf("book with ISBN %s is already borrowed: %w", code, apperr.ErrConflict)
		}

		rec = &Record{MemberID: memberID, ISBN: code, BorrowDate: s.clock.Now()}
		return s.ledger.Insert(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book borrowed",
		zap.Int64("member.id", memberID),
		zap.String("book.isbn", code),
		zap.Int64("record.id", rec.ID),
	)
	return rec, nil
}

// Return closes the member's open borrow of the book and makes it available.
func (s *service) Return(ctx context.Context, memberID int64, rawISBN string) (rec *Record, err error) {
	defer func() { s.record(ctx, "return", err) }()

	if err := validMember(memberID); err != nil {
		return nil, err
	}
	code, err := isbn.Normalize(rawISBN)
	if err != nil {
		return nil, err
	}

	err = s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		open, err := s.ledger.FindOpen(ctx, tx, memberID, code)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		closed, err := s.ledger.Close(ctx, tx, open.ID, now)
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("no active borrow of %s by member %d: %w", code, memberID, apperr.ErrNotFound)
		}

		if err := s.books.MarkAvailable(ctx, tx, code); err != nil {
			return err
		}
		open.ReturnDate = &now
		rec = open
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book returned",
		zap.Int64("member.id", memberID),
		zap.String("book.isbn", code),
		zap.Int64("record.id", rec.ID),
	)
	return rec, nil
}

// MemberHistory lists the borrows of a member, newest first.
func (s *service) MemberHistory(ctx context.Context, memberID int64, activeOnly bool) ([]Record, error) {
	ok, err := s.members.Exists(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("member %d: %w", memberID, apperr.ErrNotFound)
	}
	return s.ledger.List(ctx, s.db, HistoryFilter{MemberID: memberID, ActiveOnly: activeOnly})
}

// BookHistory lists the borrows of a book, newest first.
func (s *service) BookHistory(ctx context.Context, rawISBN string, activeOnly bool) ([]Record, error) {
	code, err := isbn.Normalize(rawISBN)
	if err != nil {
		return nil, err
	}
	ok, err := s.books.Exists(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("book with ISBN %s: %w", code, apperr.ErrNotFound)
	}
	return s.ledger.List(ctx, s.db, HistoryFilter{ISBN: code, ActiveOnly: activeOnly})
}
