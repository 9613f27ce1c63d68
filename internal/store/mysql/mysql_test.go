package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestDialect_Statements(t *testing.T) {
	d := Dialect{}

	if got, want := d.CreateTable("images"), "CREATE TABLE IF NOT EXISTS `images` (id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY)"; got != want {
		t.Errorf("CreateTable = %q, want %q", got, want)
	}
	if got, want := d.AddColumn("images", "url"), "ALTER TABLE `images` ADD COLUMN `url` TEXT NULL"; got != want {
		t.Errorf("AddColumn = %q, want %q", got, want)
	}
	if got := d.Quote("a`b"); got != "`a``b`" {
		t.Errorf("Quote = %q", got)
	}
}

func TestDialect_IsDuplicate(t *testing.T) {
	d := Dialect{}

	if !d.IsDuplicate(&mysql.MySQLError{Number: 1060, Message: "Duplicate column name 'url'"}) {
		t.Error("expected 1060 to be a duplicate")
	}
	if !d.IsDuplicate(&mysql.MySQLError{Number: 1050}) {
		t.Error("expected 1050 to be a duplicate")
	}
	if d.IsDuplicate(&mysql.MySQLError{Number: 1146}) {
		t.Error("1146 is a missing table, not a duplicate")
	}
	if d.IsDuplicate(errors.New("Duplicate column name")) {
		t.Error("non-driver errors are not inspected")
	}
}

func TestConfig_ForcesFoundRows(t *testing.T) {
	cfg, err := Config("user:pass@tcp(localhost:3306)/autodb")
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if !cfg.ClientFoundRows {
		t.Error("clientFoundRows must be enabled")
	}
	if cfg.DBName != "autodb" || cfg.Addr != "localhost:3306" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := Config("not a dsn"); err == nil {
		t.Error("expected error for invalid dsn")
	}
}

func TestDialect_Columns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM information_schema.columns\s+WHERE table_schema = DATABASE\(\)`).
		WithArgs("images").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	cols, err := Dialect{}.Columns(context.Background(), db, "images")
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if len(cols) != 0 {
		t.Errorf("expected no columns, got %+v", cols)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
