package membership

import (
	"context"

	"bookshelf/internal/storage"
)

// This file contains mocks definitions needed to perform unit tests.

type MockService struct {
	RegisterMemberFunc func(ctx context.Context, name string) (*Member, error)
	GetMemberFunc      func(ctx context.Context, id int64) (*Member, error)
	ListMembersFunc    func(ctx context.Context, page storage.Page) ([]Member, int, error)
}

func (m *MockService) RegisterMember(ctx context.Context, name string) (*Member, error) {
	return m.RegisterMemberFunc(ctx, name)
}

func (m *MockService) GetMember(ctx context.Context, id int64) (*Member, error) {
	return m.GetMemberFunc(ctx, id)
}

func (m *MockService) ListMembers(ctx context.Context, page storage.Page) ([]Member, int, error) {
	return m.ListMembersFunc(ctx, page)
}
