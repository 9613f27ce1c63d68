// Package database opens a query engine for a configured driver.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"autodb/internal/store"
	"autodb/internal/store/mysql"
	"autodb/internal/store/postgres"
	"autodb/internal/store/sqlite"
)

// Dialect returns the dialect for a database/sql driver name.
func Dialect(driver string) (store.Dialect, error) {
	switch driver {
	case sqlite.DriverName, "sqlite":
		return sqlite.Dialect{}, nil
	case postgres.DriverPQ, postgres.DriverPGX:
		return postgres.Dialect{}, nil
	case mysql.DriverName:
		return mysql.Dialect{}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// Connect opens the database at url with driver and wraps it in a Store.
func Connect(ctx context.Context, driver, url string, logger *slog.Logger) (*store.Store, error) {
	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect.(type) {
	case sqlite.Dialect:
		db, err = sqlite.Open(ctx, url)
	case postgres.Dialect:
		db, err = postgres.Open(ctx, driver, url)
	case mysql.Dialect:
		db, err = mysql.Open(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connected to database", "driver", driver, "dialect", dialect.Name())
	return store.New(db, dialect, logger), nil
}
