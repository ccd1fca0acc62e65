// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// DRIVER AND ROW MAPPING:
// modernc.org/sqlite is a pure Go SQLite, registered with database/sql under
// the name "sqlite". sqlx sits on top of the pool and scans rows into structs
// by their `db` tags, so queries read like:
//
//	var row userRow
//	err := db.conn.GetContext(ctx, &row, `SELECT ... WHERE id = ?`, id)
//
// TIMESTAMPS:
// Every timestamp column is INTEGER unix milliseconds (UTC). Comparisons such
// as "expires_at < ?" are then plain integer comparisons. The *Row structs
// carry the int64 form and convert to model types at the edge.
//
// SCHEMA:
// Tables are created by goose from the SQL files embedded in ./migrations.
// New runs every pending migration before returning.
//
// CONCURRENCY:
// The store is the only serialization point for domain state. Each pooled
// connection is opened with WAL, foreign keys, a busy timeout and
// BEGIN IMMEDIATE transactions, so concurrent writers queue on the database
// lock instead of failing at once. When the wait still runs out the driver
// error is classified as transient (see errors.go).
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/sakif/socialgraph/internal/repository/sqlite/migrations"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

const busyTimeoutMillis = 5000

// DB wraps a sqlx connection pool and provides every repository method.
// It implements all the interfaces in the repository package.
type DB struct {
	conn *sqlx.DB
}

// New opens (creating if needed) the database at dbPath and migrates it.
//
// dbPath examples:
//   - "data/socialgraph.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database, pinned to one connection
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn turns a plain path into a URI carrying the per-connection pragmas.
// Pragmas set with a one-off Exec would only reach a single pooled
// connection, so they ride along in the DSN instead.
func dsn(dbPath string) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMillis),
		"_txlock=immediate",
	}
	if dbPath != ":memory:" {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return "file:" + dbPath + "?" + strings.Join(pragmas, "&")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn.DB, migrations.FS)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error. fn's error is returned untouched so typed AppErrors
// survive; begin/commit failures are classified by storeError.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return storeError(op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError(op, err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// now is truncated to the millisecond so values round-trip through the store unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
