package experiment

import (
	"context"
	"net/http/httptest"
	"testing"

	"bookshelf/internal/app"
	"bookshelf/internal/catalog"
	"bookshelf/internal/clients"
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

func TestConcurrentBorrowExperiment(t *testing.T) {
	handler := app.NewAPIHandler(config.Default(), zap.NewNop(), storagetest.NewSQLite(t), fixedFetcher{}, clock.NewMock())
	srv := httptest.NewServer(handler)
	defer srv.Close()
	c := clients.New(srv.URL, srv.Client())
	ctx := context.Background()

	exp, outcome := ConcurrentBorrow(c, RaceConfig{ISBN: "9780451524935", Borrowers: 8})
	result, err := NewEngine(zap.NewNop()).Run(ctx, exp)
	require.NoError(t, err)
	assert.True(t, result.HypothesisHeld, "%+v", result.Violations)
	assert.Equal(t, 1, outcome.Successes)
	assert.Equal(t, 7, outcome.Conflicts)
	assert.Empty(t, outcome.Unexpected)
	assert.Equal(t, float64(1), result.Observations["open_records_after"])

	book, err := c.GetBook(ctx, "9780451524935")
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusAvailable, book.Status)

	// A second run starts from the rolled back state.
	exp, outcome = ConcurrentBorrow(c, RaceConfig{ISBN: "9780451524935", Borrowers: 4})
	result, err = NewEngine(zap.NewNop()).Run(ctx, exp)
	require.NoError(t, err)
	assert.True(t, result.HypothesisHeld)
	assert.Equal(t, 3, outcome.Conflicts)

	// Rerunning the same experiment counts only its own borrows.
	result, err = NewEngine(zap.NewNop()).Run(ctx, exp)
	require.NoError(t, err)
	assert.True(t, result.HypothesisHeld, "%+v", result.Violations)
	assert.Equal(t, 1, outcome.Successes)
	assert.Equal(t, 3, outcome.Conflicts)
}
