// Package intent turns method-name conventions into structured query intents.
//
// A name such as "set_image_by_user_id" encodes an operation verb, the
// column(s) it targets, the column(s) it filters on and, optionally, a status
// literal. Parse resolves the name into an Intent; the store package renders
// and executes it. Nothing in this package performs I/O.
package intent

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// Op is the operation verb of an intent.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Statuses is the allow-list of status literals accepted in names.
var Statuses = []string{"uploaded", "pending", "processing", "waiting", "done", "error"}

// ErrParse is the sentinel wrapped by every ParseError.
var ErrParse = errors.New("unrecognized method name")

// ParseError reports a method name that matches no known convention.
type ParseError struct {
	Name   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Name, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

var (
	identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

	reserved = map[string]bool{
		"get": true, "set": true, "update": true, "delete": true,
		"by": true, "with": true, "and": true,
	}
)

// Intent is the structured form of a query.
//
// An intent with no Targets is the simple-table form: it selects or deletes
// whole rows. Status, when set, adds an implicit "status = <literal>" filter.
type Intent struct {
	Name    string
	Op      Op
	Targets []string
	Filters []string
	Status  string
	Table   string

	// filtersFirst is set for "set_<table>_status", whose arguments are
	// (id, status) rather than (value, filter).
	filtersFirst bool
}

// On returns a copy of the intent bound to table. The name is pluralized.
func (i Intent) On(table string) Intent {
	i.Table = Pluralize(table)
	return i
}

// Arity is the number of positional arguments Run expects for the intent.
func (i Intent) Arity() int {
	switch i.Op {
	case OpSet, OpUpdate:
		return len(i.Targets) + len(i.Filters)
	default:
		return len(i.Filters)
	}
}

// Split separates positional arguments into target values and filter values.
func (i Intent) Split(args []any) (values, filters []any, err error) {
	if len(args) != i.Arity() {
		return nil, nil, fmt.Errorf("%s expects %d argument(s), got %d", i.describe(), i.Arity(), len(args))
	}
	if i.Op == OpGet || i.Op == OpDelete {
		return nil, args, nil
	}
	if i.filtersFirst {
		return args[len(i.Filters):], args[:len(i.Filters)], nil
	}
	return args[:len(i.Targets)], args[len(i.Targets):], nil
}

// SelectAll reports whether the intent is the simple-table form.
func (i Intent) SelectAll() bool {
	return len(i.Targets) == 0
}

// Columns returns every column the intent touches, in order and without
// duplicates. The status column is included when a status literal is set.
func (i Intent) Columns() []string {
	cols := make([]string, 0, len(i.Targets)+len(i.Filters)+1)
	add := func(c string) {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	for _, c := range i.Targets {
		add(c)
	}
	for _, c := range i.Filters {
		add(c)
	}
	if i.Status != "" {
		add("status")
	}
	return cols
}

// Validate checks the invariants of an intent built by hand.
func (i Intent) Validate() error {
	switch i.Op {
	case OpGet, OpSet, OpUpdate, OpDelete:
	default:
		return &ParseError{Name: i.describe(), Reason: fmt.Sprintf("unknown operation %q", i.Op)}
	}
	if !identRe.MatchString(i.Table) {
		return &ParseError{Name: i.describe(), Reason: fmt.Sprintf("invalid table %q", i.Table)}
	}
	if Pluralize(i.Table) != i.Table {
		return &ParseError{Name: i.describe(), Reason: fmt.Sprintf("table %q is not plural", i.Table)}
	}
	if len(i.Filters) > 2 {
		return &ParseError{Name: i.describe(), Reason: "at most two filter columns are supported"}
	}
	if (i.Op == OpSet || i.Op == OpUpdate) && i.SelectAll() {
		return &ParseError{Name: i.describe(), Reason: "write needs at least one target column"}
	}
	if i.Status != "" && !slices.Contains(Statuses, i.Status) {
		return &ParseError{Name: i.describe(), Reason: fmt.Sprintf("status %q is not allowed", i.Status)}
	}
	for _, c := range append(slices.Clone(i.Targets), i.Filters...) {
		if err := checkColumn(i.describe(), c); err != nil {
			return err
		}
	}
	return nil
}

func (i Intent) describe() string {
	if i.Name != "" {
		return i.Name
	}
	return fmt.Sprintf("%s %s", i.Op, i.Table)
}

// ValidIdentifier reports whether s is usable as a table or column name.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s) && !reserved[s]
}

func checkColumn(name, col string) error {
	if !identRe.MatchString(col) {
		return &ParseError{Name: name, Reason: fmt.Sprintf("invalid column %q", col)}
	}
	if reserved[col] {
		return &ParseError{Name: name, Reason: fmt.Sprintf("column %q is a reserved word", col)}
	}
	return nil
}
