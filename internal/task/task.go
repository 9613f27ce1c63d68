// Package task contains the polling scheduler and the job types it drives.
//
// A Task is one kind of background work backed by a table of records. The
// Scheduler polls every registered Task for pending records, marks them as
// processing and hands them to a bounded pool of workers.
package task

import (
	"context"

	"autodb/internal/store"
)

// Status is the lifecycle state of a task record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusWaiting    Status = "waiting"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Task is one job type.
type Task interface {
	// Name identifies the task in the registry, logs and metrics.
	Name() string

	// FetchPending returns the next pending record, or a zero Record when
	// there is no work.
	FetchPending(ctx context.Context) (store.Record, error)

	// Process does the work for a record and returns a reference to the
	// result, such as a URL.
	Process(ctx context.Context, rec store.Record) (string, error)

	SetStatus(ctx context.Context, rec store.Record, status Status) error
	SaveResult(ctx context.Context, rec store.Record, result string) error
}
