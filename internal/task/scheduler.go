package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"autodb/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Concurrency    int
	PollInterval   time.Duration
	ProcessTimeout time.Duration // Upper bound for one Process call (default: 5m)
}

// Scheduler polls every registered task on a fixed cadence and dispatches
// pending records to a bounded worker pool.
type Scheduler struct {
	registry *Registry
	config   SchedulerConfig
	logger   *slog.Logger

	sem  chan struct{}
	wg   sync.WaitGroup
	done chan struct{}

	tracer    trace.Tracer
	processed metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a scheduler over registry.
func New(registry *Registry, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter("autodb/task")
	processed, err := meter.Int64Counter("autodb.tasks.processed",
		metric.WithDescription("Task records processed successfully"))
	if err != nil {
		processed = noop.Int64Counter{}
	}
	failed, err := meter.Int64Counter("autodb.tasks.failed",
		metric.WithDescription("Task records moved to error"))
	if err != nil {
		failed = noop.Int64Counter{}
	}

	return &Scheduler{
		registry:  registry,
		config:    config,
		logger:    logger,
		sem:       make(chan struct{}, config.Concurrency),
		done:      make(chan struct{}),
		tracer:    otel.Tracer("autodb/task"),
		processed: processed,
		failed:    failed,
	}
}

// Run polls until ctx is cancelled. On cancellation it stops fetching and
// waits for in-flight records to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler starting",
		"tasks", s.registry.Names(),
		"concurrency", s.config.Concurrency,
		"poll_interval", s.config.PollInterval,
	)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, waiting for running tasks to finish")
			s.wg.Wait()
			close(s.done)
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick sweeps the registry once, fetching at most one record per task, and
// returns how many records were dispatched. It never waits for a worker:
// when the pool is full the remaining tasks are skipped until the next tick.
func (s *Scheduler) Tick(ctx context.Context) int {
	dispatched := 0
	for _, t := range s.registry.Tasks() {
		if ctx.Err() != nil {
			return dispatched
		}

		// Reserve a slot before fetching so a record is only marked
		// processing when a worker is guaranteed to pick it up.
		select {
		case s.sem <- struct{}{}:
		default:
			s.logger.Debug("worker pool full, skipping remaining tasks", "next", t.Name())
			return dispatched
		}

		rec, err := t.FetchPending(ctx)
		if err != nil {
			<-s.sem
			s.logger.Error("fetch pending failed", "task", t.Name(), "error", err)
			continue
		}
		if rec.IsZero() {
			<-s.sem
			continue
		}

		if err := t.SetStatus(ctx, rec, StatusProcessing); err != nil {
			<-s.sem
			s.logger.Error("failed to mark record processing", "task", t.Name(), "id", rec.String("id"), "error", err)
			continue
		}

		s.wg.Add(1)
		go s.dispatch(ctx, t, rec)
		dispatched++
	}
	return dispatched
}

// Done returns a channel that is closed when Run has fully stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until every dispatched record has been handled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) dispatch(ctx context.Context, t Task, rec store.Record) {
	defer s.wg.Done()
	defer func() { <-s.sem }()

	// In-flight work outlives the poll context so shutdown can drain it.
	base := context.WithoutCancel(ctx)

	dispatchID := uuid.NewString()
	logger := s.logger.With("task", t.Name(), "id", rec.String("id"), "dispatch_id", dispatchID)

	spanCtx, span := s.tracer.Start(base, "process_task",
		trace.WithAttributes(
			attribute.String("task.name", t.Name()),
			attribute.String("record.id", rec.String("id")),
			attribute.String("dispatch.id", dispatchID),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("task", t.Name()))
	start := time.Now()

	if err := s.process(spanCtx, t, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.failed.Add(spanCtx, 1, attrs)
		logger.Error("task failed", "error", err, "duration", time.Since(start))

		if err := t.SetStatus(spanCtx, rec, StatusError); err != nil {
			logger.Error("failed to mark record as error", "error", err)
		}
		return
	}

	s.processed.Add(spanCtx, 1, attrs)
	logger.Info("task completed", "duration", time.Since(start))
}

// process runs one record through Process, SaveResult and the waiting
// transition. A panic in the task is reported as an error.
func (s *Scheduler) process(ctx context.Context, t Task, rec store.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	execCtx, cancel := context.WithTimeout(ctx, s.config.ProcessTimeout)
	defer cancel()

	result, err := t.Process(execCtx, rec)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	if err := t.SaveResult(ctx, rec, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if err := t.SetStatus(ctx, rec, StatusWaiting); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}
