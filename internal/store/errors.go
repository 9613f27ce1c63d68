package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrStoreUnavailable marks connection-level failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrArity is returned when Run receives the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")
)

// SchemaError reports a failed DDL statement or catalog lookup.
type SchemaError struct {
	Table  string
	Column string
	Op     string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: %s %s.%s: %v", e.Op, e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("schema: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// classify wraps connection-level errors with ErrStoreUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	var opErr *net.OpError
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &opErr):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
