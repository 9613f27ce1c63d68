package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"autodb/internal/intent"
	"autodb/internal/sqlscan"
)

// Store executes intents and raw SQL against a database, provisioning the
// schema they need first.
type Store struct {
	db      *sql.DB
	dialect Dialect
	schema  *Provisioner
	logger  *slog.Logger
}

// RawResult is the outcome of RunRaw: rows for statements that return them,
// otherwise the number of affected rows, or -1 when the driver cannot
// report it.
type RawResult struct {
	Rows         []Record
	RowsAffected int64
}

// New creates a Store over an open database.
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		schema:  NewProvisioner(db, dialect, logger),
		logger:  logger,
	}
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Schema returns the provisioner used before every statement.
func (s *Store) Schema() *Provisioner {
	return s.schema
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx))
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Run executes an intent. Reads return the selected rows; writes return the
// rows matching the intent's filter after the write.
//
// A set that matches no row inserts one carrying the target and filter
// values, unless it is keyed by id. Update never inserts.
func (s *Store) Run(ctx context.Context, in intent.Intent, args ...any) ([]Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	values, filterVals, err := in.Split(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArity, err)
	}

	if err := s.schema.Ensure(ctx, in.Table, in.Columns()); err != nil {
		return nil, err
	}

	where := make([]cond, 0, len(in.Filters)+1)
	for i, col := range in.Filters {
		where = append(where, cond{col: col, val: filterVals[i]})
	}
	if in.Status != "" {
		where = append(where, cond{col: "status", val: in.Status})
	}

	switch in.Op {
	case intent.OpGet:
		return s.query(ctx, in.Name, buildSelect(s.dialect, in.Table, in.Targets, where))

	case intent.OpSet, intent.OpUpdate:
		set := make([]cond, len(in.Targets))
		for i, col := range in.Targets {
			set[i] = cond{col: col, val: values[i]}
		}

		n, err := s.exec(ctx, in.Name, buildUpdate(s.dialect, in.Table, set, where))
		if err != nil {
			return nil, err
		}
		if n == 0 && in.Op == intent.OpSet && !slices.Contains(in.Filters, "id") {
			s.logger.Debug("no row matched, inserting", "intent", in.Name, "table", in.Table)
			if _, err := s.insert(ctx, in.Table, merge(where, set)); err != nil {
				return nil, err
			}
		}
		return s.query(ctx, in.Name, buildSelect(s.dialect, in.Table, nil, rewrite(where, set)))

	case intent.OpDelete:
		if _, err := s.exec(ctx, in.Name, buildDelete(s.dialect, in.Table, where)); err != nil {
			return nil, err
		}
		return s.query(ctx, in.Name, buildSelect(s.dialect, in.Table, nil, where))
	}

	return nil, fmt.Errorf("unsupported operation %q", in.Op)
}

// RunName parses name and runs the resulting intent.
func (s *Store) RunName(ctx context.Context, name string, args ...any) ([]Record, error) {
	in, err := intent.Parse(name)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, in, args...)
}

// RunRaw executes SQL text. Tables and columns recognised in the text are
// provisioned first; provisioning problems are logged and execution goes on.
func (s *Store) RunRaw(ctx context.Context, query string, args ...any) (RawResult, error) {
	if strings.TrimSpace(query) == "" {
		return RawResult{}, errors.New("query is empty")
	}

	refs := sqlscan.Extract(query)
	for _, table := range refs.Tables {
		if err := s.schema.Ensure(ctx, table, refs.Columns[table]); err != nil {
			s.logger.Warn("raw query provisioning skipped", "table", table, "error", err)
		}
	}

	s.logger.Debug("executing raw sql", "sql", query, "args", len(args))

	if returnsRows(query) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return RawResult{}, fmt.Errorf("raw query failed: %w", classify(err))
		}
		defer rows.Close()

		records, err := scanRecords(rows)
		if err != nil {
			return RawResult{}, err
		}
		s.logger.Info("raw query returned rows", "rows", len(records))
		return RawResult{Rows: records}, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return RawResult{}, fmt.Errorf("raw exec failed: %w", classify(err))
	}
	if isDDL(query) {
		s.schema.Reset()
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logger.Warn("rows affected unavailable", "error", err)
		n = -1
	}
	s.logger.Info("raw statement executed", "rows_affected", n)
	return RawResult{RowsAffected: n}, nil
}

// Insert adds one row to table and returns it as stored.
func (s *Store) Insert(ctx context.Context, table string, rec Record) (Record, error) {
	if !intent.ValidIdentifier(table) {
		return Record{}, fmt.Errorf("invalid table %q", table)
	}
	cols := rec.Columns()
	for _, c := range cols {
		if !intent.ValidIdentifier(c) {
			return Record{}, fmt.Errorf("invalid column %q", c)
		}
	}
	if err := s.schema.Ensure(ctx, table, cols); err != nil {
		return Record{}, err
	}

	values := make([]cond, 0, len(cols))
	for _, c := range cols {
		v, _ := rec.Get(c)
		values = append(values, cond{col: c, val: v})
	}

	id, err := s.insert(ctx, table, values)
	if err != nil {
		return Record{}, err
	}

	rows, err := s.query(ctx, "insert", buildSelect(s.dialect, table, nil, []cond{{col: "id", val: id}}))
	if err != nil {
		return Record{}, err
	}
	if len(rows) == 0 {
		return Record{}, fmt.Errorf("inserted row %d not found in %s", id, table)
	}
	return rows[0], nil
}

// Count returns the number of rows of table whose columns equal the values
// in filter. The table and columns are provisioned first.
func (s *Store) Count(ctx context.Context, table string, filter Record) (int64, error) {
	if !intent.ValidIdentifier(table) {
		return 0, fmt.Errorf("invalid table %q", table)
	}
	cols := filter.Columns()
	where := make([]cond, 0, len(cols))
	for _, c := range cols {
		if !intent.ValidIdentifier(c) {
			return 0, fmt.Errorf("invalid column %q", c)
		}
		v, _ := filter.Get(c)
		where = append(where, cond{col: c, val: v})
	}
	if err := s.schema.Ensure(ctx, table, cols); err != nil {
		return 0, err
	}

	stmt := buildCount(s.dialect, table, where)
	s.logger.Debug("executing statement", "sql", stmt.sql)

	var n int64
	if err := s.db.QueryRowContext(ctx, stmt.sql, stmt.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s failed: %w", table, classify(err))
	}
	return n, nil
}

func (s *Store) insert(ctx context.Context, table string, values []cond) (int64, error) {
	stmt := buildInsert(s.dialect, table, values)
	s.logger.Debug("executing statement", "sql", stmt.sql)

	if s.dialect.ReturningID() {
		var id int64
		if err := s.db.QueryRowContext(ctx, stmt.sql, stmt.args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert into %s failed: %w", table, classify(err))
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s failed: %w", table, classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

func (s *Store) query(ctx context.Context, name string, stmt statement) ([]Record, error) {
	s.logger.Debug("executing statement", "intent", name, "sql", stmt.sql)

	rows, err := s.db.QueryContext(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", name, classify(err))
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("query returned rows", "intent", name, "rows", len(records))
	return records, nil
}

func (s *Store) exec(ctx context.Context, name string, stmt statement) (int64, error) {
	s.logger.Debug("executing statement", "intent", name, "sql", stmt.sql)

	res, err := s.db.ExecContext(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("exec %s failed: %w", name, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exec %s: %w", name, err)
	}
	return n, nil
}

func firstWord(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[0], "(")
}

func returnsRows(query string) bool {
	switch firstWord(query) {
	case "select", "with", "pragma", "show", "explain", "values":
		return true
	}
	return strings.Contains(strings.ToLower(query), " returning ")
}

func isDDL(query string) bool {
	switch firstWord(query) {
	case "create", "alter", "drop", "rename", "truncate":
		return true
	}
	return false
}
