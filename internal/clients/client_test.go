package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookshelf/internal/app"
	"bookshelf/internal/apperr"
	"bookshelf/internal/catalog"
	"bookshelf/internal/clock"
	"bookshelf/internal/config"
	"bookshelf/internal/openlibrary"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct{}

func (fakeFetcher) Lookup(ctx context.Context, isbn string) (openlibrary.Metadata, error) {
	if isbn == "0000000000" {
		return openlibrary.Metadata{}, fmt.Errorf("isbn %s: %w", isbn, apperr.ErrMetadataNotFound)
	}
	return openlibrary.Metadata{Title: "Title " + isbn, Author: "Author"}, nil
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	handler := app.NewAPIHandler(config.Default(), zap.NewNop(), storagetest.NewSQLite(t), fakeFetcher{}, clock.NewMock())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func TestClientBooks(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	book, err := c.AddBook(ctx, "978-0-451-52493-5")
	require.NoError(t, err)
	assert.Equal(t, "9780451524935", book.ISBN)
	assert.Equal(t, catalog.StatusAvailable, book.Status)

	_, err = c.AddBook(ctx, "9780451524935")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.NotEmpty(t, apiErr.RequestID)

	_, err = c.AddBook(ctx, "0000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = c.AddBook(ctx, "12")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := c.GetBook(ctx, "9780451524935")
	require.NoError(t, err)
	assert.Equal(t, book.Title, got.Title)

	_, err = c.AddBook(ctx, "0451524934")
	require.NoError(t, err)
	list, err := c.ListBooks(ctx, catalog.Filter{Author: "AUTH"}, storage.Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Limit)

	detail, err := c.DeleteBook(ctx, "0451524934")
	require.NoError(t, err)
	assert.Equal(t, "Book 0451524934 deleted", detail)
	_, err = c.GetBook(ctx, "0451524934")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Health{Status: "healthy", BooksCount: 1}, health)
}

func TestClientMembersAndCirculation(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.AddBook(ctx, "9780451524935")
	require.NoError(t, err)
	ada, err := c.RegisterMember(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, "2023-07-02", ada.JoinDate.Format("2006-01-02"))

	got, err := c.GetMember(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	_, err = c.GetMember(ctx, ada.ID+1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	members, err := c.ListMembers(ctx, storage.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, members.Total)
	assert.Equal(t, 100, members.Limit)

	rec, err := c.Borrow(ctx, ada.ID, "9780451524935")
	require.NoError(t, err)
	assert.True(t, rec.Open())
	_, err = c.Borrow(ctx, ada.ID, "9780451524935")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	active, err := c.BookHistory(ctx, "9780451524935", true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	returned, err := c.Return(ctx, ada.ID, "9780451524935")
	require.NoError(t, err)
	assert.False(t, returned.Open())

	active, err = c.MemberHistory(ctx, ada.ID, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := c.MemberHistory(ctx, ada.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
