// Package dbx holds the small database helpers shared by repositories: the
// DBTX interface satisfied by both *sql.DB and *sql.Tx, DSN based driver
// selection, and a transaction runner.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql used by repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect identifies the SQL flavour behind a connection.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Source is a parsed DSN ready for sql.Open.
type Source struct {
	Dialect Dialect
	Driver  string
	DSN     string
}

// ParseDSN maps a configured DSN to a driver:
//
//	postgres://... or postgresql://...  pgx
//	sqlite:<path> or file:<path>        modernc sqlite
//
// SQLite sources get foreign key enforcement switched on.
func ParseDSN(dsn string) (Source, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Source{Dialect: Postgres, Driver: "pgx", DSN: dsn}, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqliteSource(strings.TrimPrefix(dsn, "sqlite:")), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqliteSource(dsn), nil
	}
	return Source{}, fmt.Errorf("unsupported database DSN %q", redact(dsn))
}

func sqliteSource(path string) Source {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.Contains(path, "_pragma=foreign_keys") {
		path += sep + "_pragma=foreign_keys(1)"
	}
	return Source{Dialect: SQLite, Driver: "sqlite", DSN: path}
}

// redact hides a password embedded in a URL style DSN.
func redact(dsn string) string {
	at := strings.Index(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		creds = creds[:i] + ":***"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}

// Open opens and pings the database named by dsn. SQLite handles are
// limited to a single connection, which keeps in-memory databases shared
// and serialises writers.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	src, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(src.Driver, src.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", src.Dialect, err)
	}
	if src.Dialect == SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("connect to %s database: %w", src.Dialect, err)
	}
	return db, src.Dialect, nil
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back when fn fails or panics; panics are re-raised.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return repo(tx).Update(ctx, c)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}
