package circulation

import (
	"context"
	"time"

	"bookshelf/internal/storage"

	"github.com/jmoiron/sqlx"
)

// Service defines the interface for the circulation service.
type Service interface {
	Borrow(ctx context.Context, memberID int64, rawISBN string) (*Record, error)
	Return(ctx context.Context, memberID int64, rawISBN string) (*Record, error)
	MemberHistory(ctx context.Context, memberID int64, activeOnly bool) ([]Record, error)
	BookHistory(ctx context.Context, rawISBN string, activeOnly bool) ([]Record, error)
}

// Transactor is the database handle the ledger runs its transactions on.
type Transactor interface {
	storage.Querier
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// Books is the part of the book store touched by borrow and return.
type Books interface {
	Exists(ctx context.Context, q storage.Querier, isbn string) (bool, error)
	MarkBorrowed(ctx context.Context, q storage.Querier, isbn string) (bool, error)
	MarkAvailable(ctx context.Context, q storage.Querier, isbn string) error
}

// Members checks member existence.
type Members interface {
	Exists(ctx context.Context, q storage.Querier, id int64) (bool, error)
}

// Ledger persists borrow records.
type Ledger interface {
	Insert(ctx context.Context, q storage.Querier, rec *Record) error
	FindOpen(ctx context.Context, q storage.Querier, memberID int64, isbn string) (*Record, error)
	Close(ctx context.Context, q storage.Querier, id int64, at time.Time) (bool, error)
	List(ctx context.Context, q storage.Querier, filter HistoryFilter) ([]Record, error)
}
