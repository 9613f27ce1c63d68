package store

import (
	"context"
	"database/sql"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Column is a column as reported by the store's catalog.
type Column struct {
	Name string
	Type string
}

// Dialect captures everything that differs between the supported SQL engines.
// The engine only ever needs a table with an integer identity column, free
// text columns, and a way to list a table's columns.
type Dialect interface {
	// Name identifies the dialect in logs ("sqlite3", "postgres", "mysql").
	Name() string

	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string

	// Quote quotes an identifier.
	Quote(ident string) string

	// CreateTable returns DDL creating table with only the identity column.
	CreateTable(table string) string

	// AddColumn returns DDL adding a nullable free-text column.
	AddColumn(table, column string) string

	// Columns lists the columns of table. An empty result means the table
	// does not exist.
	Columns(ctx context.Context, db DBTransaction, table string) ([]Column, error)

	// IsDuplicate reports whether err means the table or column being
	// created already exists, i.e. a concurrent provisioner won the race.
	IsDuplicate(err error) bool

	// ReturningID reports whether inserts must use "RETURNING id" because
	// the driver does not support LastInsertId.
	ReturningID() bool
}
