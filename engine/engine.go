// Package engine wires all sched subsystems together. It creates the
// extension registry, middleware chain, concurrency gate, and dispatcher,
// and provides the submission and introspection operations.
//
// This package exists to break the import cycle: the root sched package
// defines Entity (imported by job and the stores) and so cannot import
// those packages back. The engine package sits above all subsystem
// packages and below the application layer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/sched"
	"github.com/xraph/sched/ext"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
	mw "github.com/xraph/sched/middleware"
	"github.com/xraph/sched/observability"
	"github.com/xraph/sched/queue"
	"github.com/xraph/sched/worker"
)

// Engine wraps a Scheduler with the wired subsystem components.
// Use Build() to create one from a Scheduler.
type Engine struct {
	s          *sched.Scheduler
	store      job.Store
	extensions *ext.Registry
	dispatcher *worker.Dispatcher
	cron       *cronRunner
	logger     *slog.Logger
	mws        []mw.Middleware

	// seq assigns the submission order used for priority tie-breaks.
	seq atomic.Uint64

	// submitMu serializes cycle checking against record insertion so
	// two concurrent submissions cannot jointly close a cycle.
	submitMu sync.Mutex

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithMiddleware adds middleware to the engine's execution chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the
// global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing Scheduler.
// The Scheduler's store must implement job.Store.
func Build(s *sched.Scheduler, opts ...Option) (*Engine, error) {
	logger := s.Logger()
	store := s.Store()

	if store == nil {
		return nil, sched.ErrNoStore
	}
	js, ok := store.(job.Store)
	if !ok {
		return nil, fmt.Errorf("sched: store does not implement job.Store")
	}

	eng := &Engine{
		s:          s,
		store:      js,
		extensions: ext.NewRegistry(logger),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(eng)
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer("github.com/xraph/sched"))
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter("github.com/xraph/sched"))
	} else {
		metricsMw = mw.Metrics()
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		obsExt = observability.NewMetricsExtensionWithMeter(
			eng.meterProvider.Meter("github.com/xraph/sched/observability"))
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
		mw.Timeout(logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	// Create the gate, executor, and dispatcher.
	config := s.Config()
	var gateOpts []queue.GateOption
	if config.RateLimit > 0 {
		gateOpts = append(gateOpts, queue.WithRate(config.RateLimit, config.RateBurst))
	}
	gate := queue.NewGate(config.Concurrency, gateOpts...)
	executor := worker.NewExecutor(logger, allMws...)
	eng.dispatcher = worker.NewDispatcher(js, executor, eng.extensions, gate, logger)
	eng.cron = newCronRunner(eng, logger)

	// Wire back into the Scheduler.
	s.SetPool(eng.dispatcher)
	s.SetExtensions(eng.extensions)

	return eng, nil
}

// ──────────────────────────────────────────────────
// Submission
// ──────────────────────────────────────────────────

// Submit persists and enqueues a job for execution and returns its ID.
// The runner executes once all dependencies reach a completed or failed
// state and a concurrency slot is free. A dependency set that would
// form a cycle is rejected with ErrCyclicDependency.
func (eng *Engine) Submit(ctx context.Context, r job.Runner, opts ...job.Option) (id.JobID, error) {
	if r == nil {
		return id.JobID{}, sched.ErrNilRunner
	}

	o := job.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	jobID := o.ID
	if jobID.IsNil() {
		jobID = id.NewJobID()
	}

	j := &job.Job{
		Entity:       sched.NewEntity(),
		ID:           jobID,
		Name:         o.Name,
		Seq:          eng.seq.Add(1),
		Priority:     o.Priority,
		Dependencies: o.Dependencies,
		Timeout:      o.Timeout,
		State:        job.StatePending,
	}

	eng.submitMu.Lock()
	if err := eng.checkAcyclic(ctx, j); err != nil {
		eng.submitMu.Unlock()
		return id.JobID{}, err
	}
	if err := eng.store.InsertJob(ctx, j); err != nil {
		eng.submitMu.Unlock()
		return id.JobID{}, err
	}
	eng.submitMu.Unlock()

	eng.dispatcher.Enqueue(j, r)
	eng.extensions.EmitJobSubmitted(ctx, j)

	eng.logger.Debug("job submitted",
		slog.String("job_id", jobID.String()),
		slog.String("job_name", j.Name),
		slog.Int("priority", j.Priority),
		slog.Int("dependencies", len(j.Dependencies)),
	)
	return jobID, nil
}

// ──────────────────────────────────────────────────
// Introspection and control
// ──────────────────────────────────────────────────

// Wait blocks until the job reaches a terminal state, the timeout
// elapses, or ctx is done. See worker.Dispatcher.Wait for the exact
// outcome semantics.
func (eng *Engine) Wait(ctx context.Context, jobID id.JobID, timeout time.Duration) (any, error) {
	return eng.dispatcher.Wait(ctx, jobID, timeout)
}

// GetJob returns the current record for a job.
func (eng *Engine) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	return eng.store.GetJob(ctx, jobID)
}

// GetResult returns the recorded result for a job, with ok=false when
// the job has not completed successfully.
func (eng *Engine) GetResult(ctx context.Context, jobID id.JobID) (any, bool, error) {
	return eng.store.GetResult(ctx, jobID)
}

// Cancel cancels a pending or running job. See worker.Dispatcher.Cancel.
func (eng *Engine) Cancel(jobID id.JobID) bool {
	return eng.dispatcher.Cancel(jobID)
}

// OnComplete registers a callback fired when the job finishes.
func (eng *Engine) OnComplete(jobID id.JobID, cb worker.Callback) error {
	return eng.dispatcher.OnComplete(jobID, cb)
}

// ClearQueue cancels all pending jobs and returns how many were removed.
func (eng *Engine) ClearQueue(ctx context.Context) int {
	return eng.dispatcher.ClearQueue(ctx)
}

// SetConcurrencyLimit adjusts the maximum number of simultaneously
// running jobs. Raising the limit admits eligible jobs immediately;
// lowering it never interrupts running jobs.
func (eng *Engine) SetConcurrencyLimit(n int) error {
	if n <= 0 {
		return sched.ErrInvalidConcurrency
	}
	eng.dispatcher.SetLimit(n)
	return nil
}

// Stats summarizes job counts by state.
type Stats struct {
	Pending   int64
	Running   int64
	Completed int64
	Failed    int64
	Cancelled int64
	Total     int64
}

// Stats recomputes job counts by scanning the store.
func (eng *Engine) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		state job.State
		dst   *int64
	}{
		{job.StatePending, &st.Pending},
		{job.StateRunning, &st.Running},
		{job.StateCompleted, &st.Completed},
		{job.StateFailed, &st.Failed},
		{job.StateCancelled, &st.Cancelled},
	}
	for _, c := range counts {
		n, err := eng.store.CountJobs(ctx, job.CountOpts{State: c.state})
		if err != nil {
			return Stats{}, err
		}
		*c.dst = n
		st.Total += n
	}
	return st, nil
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start begins job admission and cron scheduling.
func (eng *Engine) Start(ctx context.Context) error {
	if err := eng.s.Start(ctx); err != nil {
		return err
	}
	eng.cron.Start()
	return nil
}

// Stop gracefully shuts down the engine: cron firing stops first, then
// the dispatcher drains. When ctx carries no deadline the configured
// ShutdownTimeout applies.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.cron.Stop()

	if _, ok := ctx.Deadline(); !ok {
		if d := eng.s.Config().ShutdownTimeout; d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}
	return eng.s.Stop(ctx)
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Scheduler returns the underlying Scheduler.
func (eng *Engine) Scheduler() *sched.Scheduler { return eng.s }

// Dispatcher returns the underlying dispatcher.
func (eng *Engine) Dispatcher() *worker.Dispatcher { return eng.dispatcher }
