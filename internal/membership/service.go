package membership

import (
	"context"

	"bookshelf/internal/storage"
)

// Service defines the interface for the membership service.
type Service interface {
	RegisterMember(ctx context.Context, name string) (*Member, error)
	GetMember(ctx context.Context, id int64) (*Member, error)
	ListMembers(ctx context.Context, page storage.Page) ([]Member, int, error)
}

// Repository is the persistence used by the membership service.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	Get(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context, page storage.Page) ([]Member, int, error)
}
