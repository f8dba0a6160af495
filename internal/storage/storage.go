// Package storage owns the relational database handle shared by the catalog,
// membership and circulation stores. Postgres is the production backend and
// SQLite the embedded one; queries are built with the goqu dialect of the
// active driver and executed through sqlx.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bookshelf/internal/config"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// sqliteDriver is go-sqlite3 with a Unicode aware lower(). The built-in one only
// folds ASCII, which breaks case-insensitive filters on accented text.
const sqliteDriver = "sqlite3_bookshelf"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx. Store methods that must be
// able to join a caller's transaction take one instead of using the pool.
type Querier interface {
	sqlx.ExtContext
}

// DB wraps the connection pool together with the SQL dialect of its driver.
type DB struct {
	*sqlx.DB
	driver  string
	dialect goqu.DialectWrapper
	tracer  trace.Tracer
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	driverName := cfg.Driver
	if cfg.Driver == config.DriverSQLite {
		driverName = sqliteDriver
	}
	sqlDB, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	db := sqlx.NewDb(sqlDB, cfg.Driver)

	if cfg.Driver == config.DriverSQLite {
		// A single writer connection avoids SQLITE_BUSY between concurrent transactions.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}

	return &DB{
		DB:      db,
		driver:  cfg.Driver,
		dialect: goqu.Dialect(cfg.Driver),
		tracer:  otel.Tracer("bookshelf/storage"),
	}, nil
}

// From starts a prepared SELECT on table.
func (db *DB) From(table string) *goqu.SelectDataset {
	return db.dialect.From(table).Prepared(true)
}

// Insert starts a prepared INSERT into table.
func (db *DB) Insert(table string) *goqu.InsertDataset {
	return db.dialect.Insert(table).Prepared(true)
}

// Update starts a prepared UPDATE of table.
func (db *DB) Update(table string) *goqu.UpdateDataset {
	return db.dialect.Update(table).Prepared(true)
}

// Delete starts a prepared DELETE from table.
func (db *DB) Delete(table string) *goqu.DeleteDataset {
	return db.dialect.Delete(table).Prepared(true)
}

// InTx runs fn inside a transaction which is committed when fn returns nil and
// rolled back otherwise. fn must only use tx: with SQLite the pool holds a
// single connection which tx already owns.
func (db *DB) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	ctx, span := db.tracer.Start(ctx, "storage.transaction",
		trace.WithAttributes(attribute.String("db.system", db.driver)),
	)
	defer span.End()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		span.SetAttributes(attribute.Bool("tx.committed", false))
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	span.SetAttributes(attribute.Bool("tx.committed", true))
	return nil
}

// InsertID executes ds and returns the generated "id" column. Postgres reports it
// through RETURNING, SQLite through the driver's last insert id.
func (db *DB) InsertID(ctx context.Context, q Querier, ds *goqu.InsertDataset) (int64, error) {
	if db.driver == config.DriverPostgres {
		query, args, err := ds.Returning("id").ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		var id int64
		if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Exec builds and runs a statement, returning the number of affected rows.
func Exec(ctx context.Context, q Querier, stmt interface {
	ToSQL() (string, []interface{}, error)
}) (int64, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Get builds ds and scans the single resulting row into dest.
func Get(ctx context.Context, q Querier, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

// Select builds ds and scans every resulting row into dest, a pointer to a slice.
func Select(ctx context.Context, q Querier, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

// Count returns the number of rows matched by ds.
func Count(ctx context.Context, q Querier, ds *goqu.SelectDataset) (int, error) {
	var n int64
	if err := Get(ctx, q, &n, ds.Select(goqu.COUNT(goqu.Star()))); err != nil {
		return 0, err
	}
	return int(n), nil
}
