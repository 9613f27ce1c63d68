// Package store contains the query engine: schema provisioning, statement
// building and execution over any supported SQL dialect.
package store

import (
	"database/sql"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one row as an insertion-ordered mapping of column to value.
// Its JSON form keeps the column order.
type Record struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{m: orderedmap.New[string, any]()}
}

// RecordOf builds a record from alternating column/value pairs.
func RecordOf(pairs ...any) Record {
	r := NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(fmt.Sprint(pairs[i]), pairs[i+1])
	}
	return r
}

// Set assigns value to col, keeping the column's original position.
func (r *Record) Set(col string, value any) {
	if r.m == nil {
		r.m = orderedmap.New[string, any]()
	}
	r.m.Set(col, value)
}

// Get returns the value of col.
func (r Record) Get(col string) (any, bool) {
	if r.m == nil {
		return nil, false
	}
	return r.m.Get(col)
}

// Len is the number of columns.
func (r Record) Len() int {
	if r.m == nil {
		return 0
	}
	return r.m.Len()
}

// IsZero reports whether the record has no columns.
func (r Record) IsZero() bool {
	return r.Len() == 0
}

// Columns returns the column names in order.
func (r Record) Columns() []string {
	if r.m == nil {
		return nil
	}
	cols := make([]string, 0, r.m.Len())
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		cols = append(cols, p.Key)
	}
	return cols
}

// Values returns the values in column order.
func (r Record) Values() []any {
	if r.m == nil {
		return nil
	}
	vals := make([]any, 0, r.m.Len())
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		vals = append(vals, p.Value)
	}
	return vals
}

// String returns the value of col formatted as text, "" for NULL or missing.
func (r Record) String(col string) string {
	v, ok := r.Get(col)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Int64 returns the value of col as an integer. Free-text columns hold
// numbers as strings, so those are parsed.
func (r Record) Int64(col string) (int64, bool) {
	v, ok := r.Get(col)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// MarshalJSON encodes the record as a JSON object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.m == nil {
		return []byte("{}"), nil
	}
	return r.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	r.m = m
	return nil
}

// scanRecords reads every row into records. Driver byte slices are
// converted to strings so free-text columns read back as text.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	records := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec := NewRecord()
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec.Set(col, string(b))
				continue
			}
			rec.Set(col, values[i])
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}
