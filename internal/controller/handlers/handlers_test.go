package handlers

import (
	"context"
	"errors"

	"autodb/internal/intent"
	"autodb/internal/store"
)

type runCall struct {
	in   intent.Intent
	args []any
}

// Mock engine
type mockEngine struct {
	pingErr error

	insertResp store.Record
	insertErr  error

	// runResps is consumed in call order; runErr fails every Run.
	runResps [][]store.Record
	runErr   error

	// Spies (to verify arguments passed by handlers)
	insertedTable  string
	insertedRecord store.Record
	runs           []runCall
}

func (m *mockEngine) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockEngine) Run(ctx context.Context, in intent.Intent, args ...any) ([]store.Record, error) {
	m.runs = append(m.runs, runCall{in: in, args: args})
	if m.runErr != nil {
		return nil, m.runErr
	}
	if len(m.runResps) == 0 {
		return nil, errors.New("unexpected Run call")
	}
	resp := m.runResps[0]
	m.runResps = m.runResps[1:]
	return resp, nil
}

func (m *mockEngine) Insert(ctx context.Context, table string, rec store.Record) (store.Record, error) {
	m.insertedTable = table
	m.insertedRecord = rec
	if m.insertErr != nil {
		return store.Record{}, m.insertErr
	}
	return m.insertResp, nil
}
