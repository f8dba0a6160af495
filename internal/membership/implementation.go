package membership

import (
	"context"
	"fmt"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/clock"
	"bookshelf/internal/storage"

	"go.uber.org/zap"
)

// service implements the Service interface.
type service struct {
	repo   Repository
	clock  clock.Clocker
	logger *zap.Logger
}

// NewService creates a new membership service instance.
func NewService(repo Repository, ck clock.Clocker, logger *zap.Logger) Service {
	return &service{repo: repo, clock: ck, logger: logger}
}

// RegisterMember creates a member joining today.
func (s *service) RegisterMember(ctx context.Context, name string) (*Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("member name is required: %w", apperr.ErrValidation)
	}

	m := &Member{Name: name, JoinDate: clock.Today(s.clock)}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("member registered", zap.Int64("member.id", m.ID))
	return m, nil
}

// GetMember retrieves a member by id.
func (s *service) GetMember(ctx context.Context, id int64) (*Member, error) {
	return s.repo.Get(ctx, id)
}

// ListMembers returns a page of members and the total count.
func (s *service) ListMembers(ctx context.Context, page storage.Page) ([]Member, int, error) {
	return s.repo.List(ctx, page)
}
