package store

import (
	"strings"
)

// cond is one "column = value" pair, used for both SET and WHERE lists.
type cond struct {
	col string
	val any
}

// statement is rendered SQL with its bind arguments.
type statement struct {
	sql  string
	args []any
}

// builder renders parameterized statements for a dialect.
type builder struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func newBuilder(d Dialect) *builder {
	return &builder{d: d}
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) where(conds []cond) {
	for i, c := range conds {
		if i == 0 {
			b.sb.WriteString(" WHERE ")
		} else {
			b.sb.WriteString(" AND ")
		}
		b.sb.WriteString(b.d.Quote(c.col))
		b.sb.WriteString(" = ")
		b.sb.WriteString(b.arg(c.val))
	}
}

func (b *builder) done() statement {
	return statement{sql: b.sb.String(), args: b.args}
}

func buildSelect(d Dialect, table string, cols []string, where []cond) statement {
	b := newBuilder(d)
	b.sb.WriteString("SELECT ")
	if len(cols) == 0 {
		b.sb.WriteString("*")
	} else {
		for i, c := range cols {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.sb.WriteString(d.Quote(c))
		}
	}
	b.sb.WriteString(" FROM ")
	b.sb.WriteString(d.Quote(table))
	b.where(where)
	b.sb.WriteString(" ORDER BY ")
	b.sb.WriteString(d.Quote("id"))
	return b.done()
}

func buildCount(d Dialect, table string, where []cond) statement {
	b := newBuilder(d)
	b.sb.WriteString("SELECT COUNT(*) FROM ")
	b.sb.WriteString(d.Quote(table))
	b.where(where)
	return b.done()
}

func buildUpdate(d Dialect, table string, set []cond, where []cond) statement {
	b := newBuilder(d)
	b.sb.WriteString("UPDATE ")
	b.sb.WriteString(d.Quote(table))
	b.sb.WriteString(" SET ")
	for i, c := range set {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(d.Quote(c.col))
		b.sb.WriteString(" = ")
		b.sb.WriteString(b.arg(c.val))
	}
	b.where(where)
	return b.done()
}

func buildInsert(d Dialect, table string, values []cond) statement {
	b := newBuilder(d)
	b.sb.WriteString("INSERT INTO ")
	b.sb.WriteString(d.Quote(table))
	if len(values) == 0 {
		if d.Name() == "mysql" {
			b.sb.WriteString(" () VALUES ()")
		} else {
			b.sb.WriteString(" DEFAULT VALUES")
		}
	} else {
		b.sb.WriteString(" (")
		for i, c := range values {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.sb.WriteString(d.Quote(c.col))
		}
		b.sb.WriteString(") VALUES (")
		for i, c := range values {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.sb.WriteString(b.arg(c.val))
		}
		b.sb.WriteString(")")
	}
	if d.ReturningID() {
		b.sb.WriteString(" RETURNING ")
		b.sb.WriteString(d.Quote("id"))
	}
	return b.done()
}

func buildDelete(d Dialect, table string, where []cond) statement {
	b := newBuilder(d)
	b.sb.WriteString("DELETE FROM ")
	b.sb.WriteString(d.Quote(table))
	b.where(where)
	return b.done()
}

// merge returns base with every column of over replaced or appended.
func merge(base, over []cond) []cond {
	out := make([]cond, 0, len(base)+len(over))
	out = append(out, base...)
	for _, o := range over {
		replaced := false
		for i := range out {
			if out[i].col == o.col {
				out[i].val = o.val
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}

// rewrite replaces the value of every cond whose column appears in set.
func rewrite(where, set []cond) []cond {
	out := make([]cond, len(where))
	copy(out, where)
	for i := range out {
		for _, s := range set {
			if out[i].col == s.col {
				out[i].val = s.val
			}
		}
	}
	return out
}
