// Package postgres implements the store dialect for PostgreSQL.
//
// Both github.com/lib/pq (driver "postgres") and the pgx stdlib adapter
// (driver "pgx") are registered; error detection understands either.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"autodb/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// SQLSTATE codes returned when a concurrent provisioner created the object
// first. 23505 shows up when two CREATE TABLE IF NOT EXISTS race on pg_type.
const (
	codeDuplicateTable  = "42P07"
	codeDuplicateColumn = "42701"
	codeUniqueViolation = "23505"
)

// Dialect is the PostgreSQL dialect.
type Dialect struct{}

var _ store.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) Quote(ident string) string { return pq.QuoteIdentifier(ident) }

func (d Dialect) CreateTable(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY)", d.Quote(table))
}

func (d Dialect) AddColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT", d.Quote(table), d.Quote(column))
}

func (Dialect) Columns(ctx context.Context, db store.DBTransaction, table string) ([]store.Column, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []store.Column
	for rows.Next() {
		var c store.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (Dialect) IsDuplicate(err error) bool {
	code := sqlState(err)
	return code == codeDuplicateTable || code == codeDuplicateColumn || code == codeUniqueViolation
}

func (Dialect) ReturningID() bool { return true }

func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Open connects to PostgreSQL through driver, which must be DriverPQ or
// DriverPGX.
func Open(ctx context.Context, driver, databaseURL string) (*sql.DB, error) {
	if driver != DriverPQ && driver != DriverPGX {
		return nil, fmt.Errorf("unsupported postgres driver %q", driver)
	}
	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}
