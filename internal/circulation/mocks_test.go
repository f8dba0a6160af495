package circulation

import "context"

// This file contains mocks definitions needed to perform unit tests.

type MockService struct {
	BorrowFunc        func(ctx context.Context, memberID int64, rawISBN string) (*Record, error)
	ReturnFunc        func(ctx context.Context, memberID int64, rawISBN string) (*Record, error)
	MemberHistoryFunc func(ctx context.Context, memberID int64, activeOnly bool) ([]Record, error)
	BookHistoryFunc   func(ctx context.Context, rawISBN string, activeOnly bool) ([]Record, error)
}

func (m *MockService) Borrow(ctx context.Context, memberID int64, rawISBN string) (*Record, error) {
	return m.BorrowFunc(ctx, memberID, rawISBN)
}

func (m *MockService) Return(ctx context.Context, memberID int64, rawISBN string) (*Record, error) {
	return m.ReturnFunc(ctx, memberID, rawISBN)
}

func (m *MockService) MemberHistory(ctx context.Context, memberID int64, activeOnly bool) ([]Record, error) {
	return m.MemberHistoryFunc(ctx, memberID, activeOnly)
}

func (m *MockService) BookHistory(ctx context.Context, rawISBN string, activeOnly bool) ([]Record, error) {
	return m.BookHistoryFunc(ctx, rawISBN, activeOnly)
}
