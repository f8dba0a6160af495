package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"bookshelf/internal/clock"
	"bookshelf/internal/config"
	"bookshelf/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresCheckoutFlow(t *testing.T) {
	db := storagetest.NewPostgres(t)
	srv := httptest.NewServer(NewAPIHandler(config.Default(), zap.NewNop(), db, stubFetcher{
		"9780743273565": {Title: "The Great Gatsby", Author: "F. Scott Fitzgerald"},
	}, clock.New()))
	defer srv.Close()

	res, body := do(t, srv, http.MethodPost, "/books", `{"isbn":"9780743273565"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))

	const borrowers = 10
	for i := 1; i <= borrowers; i++ {
		res, body := do(t, srv, http.MethodPost, "/members", fmt.Sprintf(`{"name":"Member %d"}`, i))
		require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	}

	var wg sync.WaitGroup
	codes := make([]int, borrowers)
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, _ := do(t, srv, http.MethodPost, "/borrow", fmt.Sprintf(`{"member_id":%d,"isbn":"9780743273565"}`, i+1))
			codes[i] = res.StatusCode
		}(i)
	}
	wg.Wait()

	winner, conflicts := 0, 0
	for i, code := range codes {
		switch code {
		case http.StatusCreated:
			winner = i + 1
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("borrower %d got status %d", i+1, code)
		}
	}
	require.NotZero(t, winner)
	assert.Equal(t, borrowers-1, conflicts)

	_, body = do(t, srv, http.MethodGet, "/books/9780743273565", "")
	assert.Contains(t, string(body), `"status":"borrowed"`)
	_, body = do(t, srv, http.MethodGet, "/books/9780743273565/borrows?active_only=true", "")
	assert.Equal(t, 1, countRecords(t, body))

	res, _ = do(t, srv, http.MethodPost, "/return", fmt.Sprintf(`{"member_id":%d,"isbn":"9780743273565"}`, winner))
	require.Equal(t, http.StatusOK, res.StatusCode)
	_, body = do(t, srv, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"healthy","books_count":1}`, string(body))
	_, body = do(t, srv, http.MethodGet, "/books?status=available&author=fitzgerald", "")
	assert.Contains(t, string(body), `"total":1`)
}

func countRecords(t *testing.T, body []byte) int {
	t.Helper()
	var records []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &records))
	return len(records)
}
