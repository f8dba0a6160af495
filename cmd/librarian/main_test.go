package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"bookshelf/internal/app"
	"bookshelf/internal/clock"
	"bookshelf/internal/config"
	"bookshelf/internal/openlibrary"
	"bookshelf/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedFetcher struct{}

func (fixedFetcher) Lookup(ctx context.Context, isbn string) (openlibrary.Metadata, error) {
	return openlibrary.Metadata{Title: "Nineteen Eighty-Four", Author: "George Orwell"}, nil
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLibrarianCommands(t *testing.T) {
	srv := httptest.NewServer(app.NewAPIHandler(config.Default(), zap.NewNop(), storagetest.NewSQLite(t), fixedFetcher{}, clock.NewMock()))
	defer srv.Close()

	out, err := run(t, srv.URL, "books", "add", "978-0-451-52493-5")
	require.NoError(t, err)
	assert.Contains(t, out, "9780451524935")
	assert.Contains(t, out, "Nineteen Eighty-Four")

	out, err = run(t, srv.URL, "members", "add", "Ada", "Lovelace")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "2023-07-02")

	_, err = run(t, srv.URL, "borrow", "1", "9780451524935")
	require.NoError(t, err)
	_, err = run(t, srv.URL, "borrow", "1", "9780451524935")
	assert.Error(t, err)

	out, err = run(t, srv.URL, "--json", "books", "list", "--status", "borrowed")
	require.NoError(t, err)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, 1, list.Total)

	out, err = run(t, srv.URL, "history", "--member", "1", "--active-only")
	require.NoError(t, err)
	assert.Contains(t, out, "9780451524935")

	_, err = run(t, srv.URL, "return", "1", "9780451524935")
	require.NoError(t, err)

	out, err = run(t, srv.URL, "books", "delete", "9780451524935")
	require.NoError(t, err)
	assert.Contains(t, out, "Book 9780451524935 deleted")

	out, err = run(t, srv.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")
}

func TestLibrarianArgumentErrors(t *testing.T) {
	for _, args := range [][]string{
		{"borrow", "abc", "9780451524935"},
		{"members", "get", "0"},
		{"history"},
		{"history", "--member", "1", "--isbn", "9780451524935"},
		{"books", "list", "--status", "lost"},
		{"race", "--borrowers", "1"},
	} {
		_, err := run(t, "http://127.0.0.1:1", args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestLibrarianRace(t *testing.T) {
	srv := httptest.NewServer(app.NewAPIHandler(config.Default(), zap.NewNop(), storagetest.NewSQLite(t), fixedFetcher{}, clock.NewMock()))
	defer srv.Close()

	out, err := run(t, srv.URL, "race", "--borrowers", "6")
	require.NoError(t, err, out)
	assert.Contains(t, out, "hypothesis held")
	assert.Contains(t, out, "true")
}
