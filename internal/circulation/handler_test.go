package circulation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookshelf/internal/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var borrowedAt = time.Date(2023, 7, 2, 10, 30, 0, 0, time.UTC)

func newTestRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, zap.NewNop()).Register(r)
	return r
}

func TestHandleBorrow(t *testing.T) {
	svc := &MockService{BorrowFunc: func(ctx context.Context, memberID int64, rawISBN string) (*Record, error) {
		switch {
		case memberID == 2:
			return nil, fmt.Errorf("member %d: %w", memberID, apperr.ErrNotFound)
		case rawISBN == animalFarm:
			return nil, fmt.Errorf("book with ISBN %s is already borrowed: %w", rawISBN, apperr.ErrConflict)
		case rawISBN == "123":
			return nil, fmt.Errorf("invalid ISBN: %w", apperr.ErrValidation)
		}
		return &Record{ID: 7, MemberID: memberID, ISBN: rawISBN, BorrowDate: borrowedAt}, nil
	}}
	router := newTestRouter(svc)

	tests := []struct {
		body string
		want int
	}{
		{body: `{"member_id":1,"isbn":"9780451524935"}`, want: http.StatusCreated},
		{body: `{"member_id":2,"isbn":"9780451524935"}`, want: http.StatusNotFound},
		{body: `{"member_id":1,"isbn":"9780452284234"}`, want: http.StatusConflict},
		{body: `{"member_id":1,"isbn":"123"}`, want: http.StatusUnprocessableEntity},
		{body: `{"member_id":"one"}`, want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/borrow", strings.NewReader(tt.body)))
		assert.Equal(t, tt.want, w.Code, tt.body)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/borrow", strings.NewReader(`{"member_id":1,"isbn":"9780451524935"}`)))
	assert.JSONEq(t, `{"id":7,"member_id":1,"isbn":"9780451524935","borrow_date":"2023-07-02T10:30:00Z","return_date":null}`, w.Body.String())
}

func TestHandleReturn(t *testing.T) {
	svc := &MockService{ReturnFunc: func(ctx context.Context, memberID int64, rawISBN string) (*Record, error) {
		if memberID != 1 {
			return nil, fmt.Errorf("no active borrow: %w", apperr.ErrNotFound)
		}
		returned := borrowedAt.Add(time.Hour)
		return &Record{ID: 7, MemberID: memberID, ISBN: rawISBN, BorrowDate: borrowedAt, ReturnDate: &returned}, nil
	}}
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/return", strings.NewReader(`{"member_id":1,"isbn":"9780451524935"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	var rec Record
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	require.NotNil(t, rec.ReturnDate)
	assert.Equal(t, borrowedAt.Add(time.Hour), *rec.ReturnDate)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/return", strings.NewReader(`{"member_id":3,"isbn":"9780451524935"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleHistory(t *testing.T) {
	var gotMember int64
	var gotISBN string
	var gotActive bool
	svc := &MockService{
		MemberHistoryFunc: func(ctx context.Context, memberID int64, activeOnly bool) ([]Record, error) {
			gotMember, gotActive = memberID, activeOnly
			return []Record{}, nil
		},
		BookHistoryFunc: func(ctx context.Context, rawISBN string, activeOnly bool) ([]Record, error) {
			gotISBN, gotActive = rawISBN, activeOnly
			return []Record{{ID: 1, MemberID: 1, ISBN: rawISBN, BorrowDate: borrowedAt}}, nil
		},
	}
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/members/4/borrows?active_only=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), gotMember)
	assert.True(t, gotActive)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/9780451524935/borrows", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orwell1984, gotISBN)
	assert.False(t, gotActive)

	for _, path := range []string{"/members/x/borrows", "/members/4/borrows?active_only=maybe", "/books/9780451524935/borrows?active_only=2"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, path)
	}
}
