package intent

import (
	"fmt"
	"slices"
	"strings"
)

const (
	sepWith   = "_with_"
	sepBy     = "_by_"
	sepAnd    = "_and_"
	suffixSts = "_status"
)

// matcher recognises one naming convention. It returns ok=false when the
// convention does not apply, and an error when it applies but is malformed.
type matcher func(name string, op Op, rest string) (in Intent, ok bool, err error)

// matchers are tried in order; the conventions overlap, so order matters.
var matchers = []matcher{
	matchWithStatus,
	matchSetTableStatus,
	matchSetByTwo,
	matchSetBy,
	matchBy,
	matchTable,
}

// Parse resolves a method name into an Intent.
func Parse(name string) (Intent, error) {
	verb, rest, found := strings.Cut(name, "_")
	if !found || rest == "" {
		return Intent{}, &ParseError{Name: name, Reason: "missing operation or target"}
	}

	op := Op(verb)
	switch op {
	case OpGet, OpSet, OpUpdate, OpDelete:
	default:
		return Intent{}, &ParseError{Name: name, Reason: fmt.Sprintf("unknown operation %q", verb)}
	}

	for _, m := range matchers {
		in, ok, err := m(name, op, rest)
		if err != nil {
			return Intent{}, err
		}
		if !ok {
			continue
		}
		in.Name = name
		if err := in.Validate(); err != nil {
			return Intent{}, err
		}
		return in, nil
	}
	return Intent{}, &ParseError{Name: name, Reason: "no naming convention matches"}
}

// MustParse is like Parse but panics on error. It is meant for names fixed
// at compile time.
func MustParse(name string) Intent {
	in, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return in
}

// <op>_<col>[_and_<col>...]_with_<status>_<table>
func matchWithStatus(name string, op Op, rest string) (Intent, bool, error) {
	idx := strings.LastIndex(rest, sepWith)
	if idx <= 0 {
		return Intent{}, false, nil
	}
	status, table, found := strings.Cut(rest[idx+len(sepWith):], "_")
	if !found || table == "" {
		return Intent{}, false, &ParseError{Name: name, Reason: "missing table after status"}
	}
	if !slices.Contains(Statuses, status) {
		return Intent{}, false, &ParseError{Name: name, Reason: fmt.Sprintf("status %q is not allowed", status)}
	}
	return Intent{
		Op:      op,
		Targets: strings.Split(rest[:idx], sepAnd),
		Status:  status,
		Table:   Pluralize(table),
	}, true, nil
}

// set_<table>_status(id, status)
func matchSetTableStatus(_ string, op Op, rest string) (Intent, bool, error) {
	if op != OpSet || strings.Contains(rest, sepBy) {
		return Intent{}, false, nil
	}
	table, found := strings.CutSuffix(rest, suffixSts)
	if !found || table == "" {
		return Intent{}, false, nil
	}
	return Intent{
		Op:           op,
		Targets:      []string{"status"},
		Filters:      []string{"id"},
		Table:        Pluralize(table),
		filtersFirst: true,
	}, true, nil
}

// set_<col>_by_<col1>_and_<col2>(value, v1, v2)
func matchSetByTwo(name string, op Op, rest string) (Intent, bool, error) {
	if op != OpSet && op != OpUpdate {
		return Intent{}, false, nil
	}
	cols, by, found := strings.Cut(rest, sepBy)
	if !found || !strings.Contains(by, sepAnd) {
		return Intent{}, false, nil
	}
	filters := strings.Split(by, sepAnd)
	if len(filters) != 2 {
		return Intent{}, false, &ParseError{Name: name, Reason: "at most two filter columns are supported"}
	}
	in, err := byIntent(name, op, cols)
	if err != nil {
		return Intent{}, false, err
	}
	in.Filters = filters
	return in, true, nil
}

// set_<col>_by_<col2>(value, v)
func matchSetBy(name string, op Op, rest string) (Intent, bool, error) {
	if op != OpSet {
		return Intent{}, false, nil
	}
	cols, by, found := strings.Cut(rest, sepBy)
	if !found {
		return Intent{}, false, nil
	}
	in, err := byIntent(name, op, cols)
	if err != nil {
		return Intent{}, false, err
	}
	in.Filters = []string{by}
	return in, true, nil
}

// <op>_<col>_by_<col2>
func matchBy(name string, op Op, rest string) (Intent, bool, error) {
	cols, by, found := strings.Cut(rest, sepBy)
	if !found {
		return Intent{}, false, nil
	}
	in, err := byIntent(name, op, cols)
	if err != nil {
		return Intent{}, false, err
	}
	in.Filters = []string{by}
	return in, true, nil
}

// <op>_<table>
func matchTable(name string, op Op, rest string) (Intent, bool, error) {
	if op == OpSet || op == OpUpdate {
		return Intent{}, false, &ParseError{Name: name, Reason: "write needs at least one target column"}
	}
	table, err := InferTable(name)
	if err != nil {
		return Intent{}, false, err
	}
	return Intent{Op: op, Table: table}, true, nil
}

// byIntent builds the target side of the "_by_" conventions. A target named
// "<prefix>_status" addresses the status column of the <prefix> table.
func byIntent(name string, op Op, cols string) (Intent, error) {
	table, err := InferTable(name)
	if err != nil {
		return Intent{}, err
	}
	targets := strings.Split(cols, sepAnd)
	if len(targets) == 1 {
		if prefix, found := strings.CutSuffix(targets[0], suffixSts); found && prefix != "" {
			targets = []string{"status"}
		}
	}
	return Intent{Op: op, Targets: targets, Table: table}, nil
}
