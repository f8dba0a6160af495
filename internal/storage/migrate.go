package storage

import (
	"context"
	"embed"
	"fmt"
)

//go:embed schema/*.sql
var schemas embed.FS

// Migrate creates the tables and indexes when they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	ddl, err := schemas.ReadFile("schema/" + db.driver + ".sql")
	if err != nil {
		return fmt.Errorf("read %s schema: %w", db.driver, err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply %s schema: %w", db.driver, err)
	}
	return nil
}
