// Package sqlite implements the store dialect for SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"autodb/internal/store"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// Dialect is the SQLite dialect.
type Dialect struct{}

var _ store.Dialect = Dialect{}

func (Dialect) Name() string { return DriverName }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d Dialect) CreateTable(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT)", d.Quote(table))
}

func (d Dialect) AddColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", d.Quote(table), d.Quote(column))
}

// Columns reads PRAGMA table_info, which returns no rows for a missing table.
func (d Dialect) Columns(ctx context.Context, db store.DBTransaction, table string) ([]store.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.Quote(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []store.Column
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, store.Column{Name: name, Type: typ})
	}
	return cols, rows.Err()
}

// IsDuplicate recognises "duplicate column name" and "already exists".
// SQLite reports both as a generic error, so the message is inspected.
func (Dialect) IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code != sqlite3.ErrError {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column name") || strings.Contains(msg, "already exists")
}

func (Dialect) ReturningID() bool { return false }

// Open opens a SQLite database. Writes are serialized through a single
// connection, and busy_timeout lets concurrent processes wait for the lock.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return db, nil
}
