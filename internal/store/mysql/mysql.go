// Package mysql implements the store dialect for MySQL.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"autodb/internal/store"

	"github.com/go-sql-driver/mysql"
)

const DriverName = "mysql"

// Server error numbers for objects that already exist.
const (
	errTableExists   = 1050
	errDuplicateName = 1060
)

// Dialect is the MySQL dialect.
type Dialect struct{}

var _ store.Dialect = Dialect{}

func (Dialect) Name() string { return DriverName }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d Dialect) CreateTable(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY)", d.Quote(table))
}

func (d Dialect) AddColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT NULL", d.Quote(table), d.Quote(column))
}

func (Dialect) Columns(ctx context.Context, db store.DBTransaction, table string) ([]store.Column, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
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
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errTableExists || myErr.Number == errDuplicateName
}

func (Dialect) ReturningID() bool { return false }

// Config parses dsn and forces the options the engine depends on:
// clientFoundRows makes UPDATE report matched rather than changed rows,
// so a set that rewrites an identical value is not mistaken for a miss.
func Config(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	cfg.ParseTime = true
	return cfg, nil
}

// Open connects to MySQL.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := Config(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}
	return db, nil
}
