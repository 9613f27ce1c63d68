package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Provisioner creates missing tables and columns on demand.
//
// Ensure is idempotent and never drops or retypes anything. Calls for the
// same table are serialized in-process; across processes a lost creation
// race is detected through Dialect.IsDuplicate and treated as success.
type Provisioner struct {
	db      DBTransaction
	dialect Dialect
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	known map[string]map[string]bool

	changes atomic.Int64
	counter metric.Int64Counter
}

// NewProvisioner creates a provisioner over db.
func NewProvisioner(db DBTransaction, dialect Dialect, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	counter, err := otel.Meter("autodb/store").Int64Counter("autodb.schema.changes",
		metric.WithDescription("Tables and columns created by the auto-provisioner"),
	)
	if err != nil {
		counter = noop.Int64Counter{}
	}
	return &Provisioner{
		db:      db,
		dialect: dialect,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
		known:   make(map[string]map[string]bool),
		counter: counter,
	}
}

// Ensure makes sure table exists with at least the given columns.
func (p *Provisioner) Ensure(ctx context.Context, table string, columns []string) error {
	lock := p.tableLock(table)
	lock.Lock()
	defer lock.Unlock()

	if p.covered(table, columns) {
		return nil
	}

	existing, err := p.dialect.Columns(ctx, p.db, table)
	if err != nil {
		return &SchemaError{Table: table, Op: "introspect", Err: classify(err)}
	}

	present := make(map[string]bool, len(existing)+len(columns))
	for _, c := range existing {
		present[c.Name] = true
	}

	if len(existing) == 0 {
		p.logger.Warn("table does not exist, creating", "table", table, "dialect", p.dialect.Name())
		if _, err := p.db.ExecContext(ctx, p.dialect.CreateTable(table)); err != nil {
			if !p.dialect.IsDuplicate(err) {
				return &SchemaError{Table: table, Op: "create table", Err: classify(err)}
			}
			p.logger.Debug("table created concurrently", "table", table)
		} else {
			p.recordChange(ctx, "create_table", table)
		}
		present["id"] = true
	}

	for _, col := range columns {
		if present[col] {
			continue
		}
		p.logger.Warn("column does not exist, creating", "table", table, "column", col)
		if _, err := p.db.ExecContext(ctx, p.dialect.AddColumn(table, col)); err != nil {
			if !p.dialect.IsDuplicate(err) {
				return &SchemaError{Table: table, Column: col, Op: "add column", Err: classify(err)}
			}
			p.logger.Debug("column created concurrently", "table", table, "column", col)
		} else {
			p.recordChange(ctx, "add_column", table)
		}
		present[col] = true
	}

	p.remember(table, present)
	return nil
}

// Changes is the number of structural changes made since creation.
func (p *Provisioner) Changes() int64 {
	return p.changes.Load()
}

// Reset forgets every cached table layout, forcing the next Ensure to look
// at the catalog again. Raw DDL calls it.
func (p *Provisioner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known = make(map[string]map[string]bool)
}

func (p *Provisioner) tableLock(table string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[table]
	if !ok {
		l = &sync.Mutex{}
		p.locks[table] = l
	}
	return l
}

func (p *Provisioner) covered(table string, columns []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	cols, ok := p.known[table]
	if !ok {
		return false
	}
	for _, c := range columns {
		if !cols[c] {
			return false
		}
	}
	return true
}

func (p *Provisioner) remember(table string, cols map[string]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known[table] = cols
}

func (p *Provisioner) recordChange(ctx context.Context, kind, table string) {
	p.changes.Add(1)
	p.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("change", kind),
		attribute.String("table", table),
	))
}
