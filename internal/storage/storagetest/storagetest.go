// Package storagetest provides migrated databases for store tests.
package storagetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"bookshelf/internal/config"
	"bookshelf/internal/storage"

	"github.com/ory/dockertest/v3"
)

// NewSQLite returns a migrated SQLite database living in the test's temp dir.
func NewSQLite(t testing.TB) *storage.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "bookshelf.db") + "?_foreign_keys=1&_busy_timeout=5000&_txlock=immediate"
	db, err := storage.Open(context.Background(), config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		DSN:            dsn,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate sqlite database: %v", err)
	}
	return db
}

// NewPostgres starts a throwaway postgres container and returns a migrated
// database connected to it. The test is skipped when docker is unreachable.
func NewPostgres(t testing.TB) *storage.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("could not connect to docker: %v", err)
	}

	resource, err := pool.Run("postgres", "16-alpine", []string{
		"POSTGRES_USER=bookshelf",
		"POSTGRES_PASSWORD=bookshelf",
		"POSTGRES_DB=bookshelf",
	})
	if err != nil {
		t.Fatalf("failed to start postgres: %+v", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("failed to purge resource: %+v", err)
		}
	})
	_ = resource.Expire(300)

	cfg := config.DatabaseConfig{
		Driver:         config.DriverPostgres,
		DSN:            fmt.Sprintf("postgres://bookshelf:bookshelf@%s/bookshelf?sslmode=disable", resource.GetHostPort("5432/tcp")),
		MaxOpenConns:   20,
		MaxIdleConns:   5,
		ConnectTimeout: 5 * time.Second,
	}

	var db *storage.DB
	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		var e error
		db, e = storage.Open(context.Background(), cfg)
		return e
	})
	if err != nil {
		t.Fatalf("failed to reach postgres: %+v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate postgres database: %v", err)
	}
	return db
}
