package task

import (
	"context"
	"errors"
	"fmt"

	"autodb/internal/intent"
	"autodb/internal/store"
)

// Request is a pending row of a service's request table.
type Request struct {
	ID     int64
	UserID string
	Text   string
}

// Processor does the actual work for a request and returns a result
// reference.
type Processor interface {
	Process(ctx context.Context, req Request) (string, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, req Request) (string, error)

func (f ProcessorFunc) Process(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Runner executes intents. *store.Store implements it.
type Runner interface {
	Run(ctx context.Context, in intent.Intent, args ...any) ([]store.Record, error)
}

// RequestTable returns the request table of a service.
func RequestTable(service string) string {
	return service + "_requests"
}

// RequestTask is a Task over the "<service>_requests" table.
type RequestTask struct {
	service   string
	db        Runner
	processor Processor

	fetch  intent.Intent
	status intent.Intent
	result intent.Intent
}

var _ Task = (*RequestTask)(nil)

// NewRequestTask creates the task for service. The intents it runs are
// resolved once here so a bad service name fails at startup.
func NewRequestTask(service string, db Runner, p Processor) (*RequestTask, error) {
	if !intent.ValidIdentifier(service) {
		return nil, fmt.Errorf("invalid service name %q", service)
	}
	if db == nil || p == nil {
		return nil, errors.New("request task needs a store and a processor")
	}
	table := RequestTable(service)

	fetch, err := intent.Parse(fmt.Sprintf("get_id_and_user_id_and_text_with_pending_%s", table))
	if err != nil {
		return nil, err
	}
	status, err := intent.Parse(fmt.Sprintf("set_%s_request_status", service))
	if err != nil {
		return nil, err
	}
	if fetch.Table != table || status.Table != table {
		return nil, fmt.Errorf("service name %q does not resolve to table %s", service, table)
	}

	return &RequestTask{
		service:   service,
		db:        db,
		processor: p,
		fetch:     fetch,
		status:    status,
		result:    intent.MustParse("set_result_by_id").On(table),
	}, nil
}

func (t *RequestTask) Name() string {
	return t.service
}

// Table is the request table the task reads and writes.
func (t *RequestTask) Table() string {
	return t.fetch.Table
}

func (t *RequestTask) FetchPending(ctx context.Context) (store.Record, error) {
	rows, err := t.db.Run(ctx, t.fetch)
	if err != nil {
		return store.Record{}, err
	}
	if len(rows) == 0 {
		return store.Record{}, nil
	}
	return rows[0], nil
}

func (t *RequestTask) Process(ctx context.Context, rec store.Record) (string, error) {
	id, ok := rec.Int64("id")
	if !ok {
		return "", fmt.Errorf("record has no usable id: %v", rec.Values())
	}
	return t.processor.Process(ctx, Request{
		ID:     id,
		UserID: rec.String("user_id"),
		Text:   rec.String("text"),
	})
}

func (t *RequestTask) SetStatus(ctx context.Context, rec store.Record, status Status) error {
	id, ok := rec.Int64("id")
	if !ok {
		return errors.New("record has no usable id")
	}
	_, err := t.db.Run(ctx, t.status, id, string(status))
	return err
}

func (t *RequestTask) SaveResult(ctx context.Context, rec store.Record, result string) error {
	id, ok := rec.Int64("id")
	if !ok {
		return errors.New("record has no usable id")
	}
	_, err := t.db.Run(ctx, t.result, result, id)
	return err
}
