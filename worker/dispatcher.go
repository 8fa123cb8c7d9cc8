package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/sched"
	"github.com/xraph/sched/ext"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
	"github.com/xraph/sched/queue"
)

// rateRetryDelay is how long the admission loop waits before retrying
// when the gate denies admission on rate rather than on occupancy. A
// full gate is re-woken by slot release; a rate-limited one has no
// future event to wake it.
const rateRetryDelay = 25 * time.Millisecond

// Callback is invoked when a job reaches completed or failed state.
// success is true only for completed; on failure the result is nil and
// err carries the body's error.
type Callback func(success bool, result any, err error)

// Dispatcher owns the pending queue, the concurrency gate, and every
// job state transition. A single admission goroutine, woken through a
// buffered channel, selects eligible jobs in priority order and hands
// them to per-job goroutines. Completion signals the admission loop
// again instead of re-entering it, so arbitrarily long dependency
// cascades run in constant stack space.
type Dispatcher struct {
	store      job.Store
	queue      *queue.Pending
	gate       *queue.Gate
	executor   *Executor
	extensions *ext.Registry
	logger     *slog.Logger

	// mu serializes every state transition plus the bookkeeping maps.
	mu        sync.Mutex
	runners   map[id.JobID]job.Runner
	active    map[id.JobID]context.CancelFunc
	waiters   map[id.JobID]chan struct{}
	callbacks map[id.JobID][]Callback
	failures  map[id.JobID]error

	wakeCh chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup

	lifecycleMu sync.Mutex
	running     bool
}

// NewDispatcher creates a Dispatcher. The gate bounds concurrent
// executions; the executor runs job bodies through middleware.
func NewDispatcher(
	store job.Store,
	executor *Executor,
	extensions *ext.Registry,
	gate *queue.Gate,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:      store,
		queue:      queue.NewPending(),
		gate:       gate,
		executor:   executor,
		extensions: extensions,
		logger:     logger,
		runners:    make(map[id.JobID]job.Runner),
		active:     make(map[id.JobID]context.CancelFunc),
		waiters:    make(map[id.JobID]chan struct{}),
		callbacks:  make(map[id.JobID][]Callback),
		failures:   make(map[id.JobID]error),
		wakeCh:     make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start launches the admission goroutine. It returns immediately.
// A stopped Dispatcher can be started again; jobs enqueued in between
// are admitted once the loop resumes.
func (d *Dispatcher) Start(_ context.Context) error {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	if d.running {
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})

	d.logger.Info("dispatcher starting",
		slog.Int("concurrency", d.gate.Limit()),
	)

	d.wg.Add(1)
	go d.runLoop(d.stopCh)
	d.wake()
	return nil
}

// Stop halts admission and waits for in-flight jobs to finish. Jobs
// still pending stay queued and are dropped with the process. If the
// context has a deadline, active jobs are cancelled when time runs out.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.lifecycleMu.Lock()
	if !d.running {
		d.lifecycleMu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	d.lifecycleMu.Unlock()

	d.logger.Info("dispatcher stopping")

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped gracefully")
	case <-ctx.Done():
		d.logger.Warn("dispatcher shutdown timed out, cancelling active jobs")
		d.cancelActiveJobs()
		d.wg.Wait()
	}
	return nil
}

func (d *Dispatcher) cancelActiveJobs() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for jobID, cancel := range d.active {
		d.logger.Warn("cancelling active job", slog.String("job_id", jobID.String()))
		cancel()
	}
}

// ──────────────────────────────────────────────────
// Admission
// ──────────────────────────────────────────────────

// Enqueue registers the job's runner, queues the record, and wakes the
// admission loop. The caller must have persisted the record already.
func (d *Dispatcher) Enqueue(j *job.Job, r job.Runner) {
	d.mu.Lock()
	d.runners[j.ID] = r
	d.mu.Unlock()

	d.queue.Push(j)
	d.wake()
}

// wake signals the admission loop without blocking. The channel holds
// one pending signal; further wakes coalesce.
func (d *Dispatcher) wake() {
	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) runLoop(stopCh <-chan struct{}) {
	defer d.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case <-d.wakeCh:
			d.processAdmissions()
		}
	}
}

// processAdmissions admits eligible jobs until the gate fills or no
// queued job is eligible. It never blocks and never recurses; each
// completion re-wakes the loop.
func (d *Dispatcher) processAdmissions() {
	for {
		if d.queue.Len() == 0 {
			return
		}
		if !d.gate.TryAcquire() {
			if d.gate.Limit() <= 0 || d.gate.Active() < d.gate.Limit() {
				// Denied on rate, not occupancy: retry on a timer.
				time.AfterFunc(rateRetryDelay, d.wake)
			}
			return
		}

		j := d.queue.SelectNext(d.eligible)
		if j == nil {
			d.gate.Release()
			return
		}
		d.startJob(j)
	}
}

// eligible reports whether every dependency of j has reached a state
// that unblocks dependents. Unknown IDs block until submitted.
func (d *Dispatcher) eligible(j *job.Job) bool {
	for _, dep := range j.Dependencies {
		rec, err := d.store.GetJob(context.Background(), dep)
		if err != nil {
			return false
		}
		if !rec.State.Satisfies() {
			return false
		}
	}
	return true
}

// startJob promotes j to running and launches its goroutine. The state
// transition and the cancel-func registration happen under one lock
// hold so Cancel always observes a consistent view.
func (d *Dispatcher) startJob(j *job.Job) {
	ctx := context.Background()

	d.mu.Lock()
	r, ok := d.runners[j.ID]
	if !ok {
		// Cancelled between selection and start.
		d.mu.Unlock()
		d.gate.Release()
		return
	}

	now := time.Now().UTC()
	j.State = job.StateRunning
	j.StartedAt = &now
	if err := d.store.UpdateJob(ctx, j); err != nil {
		d.logger.Error("failed to mark job running",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	d.active[j.ID] = cancel
	d.mu.Unlock()

	d.extensions.EmitJobStarted(ctx, j)

	d.wg.Add(1)
	go d.runJob(runCtx, cancel, j, r)
}

func (d *Dispatcher) runJob(ctx context.Context, cancel context.CancelFunc, j *job.Job, r job.Runner) {
	defer d.wg.Done()
	defer cancel()

	result, elapsed, err := d.executor.Execute(ctx, j, r)
	d.complete(j, result, elapsed, err)
}

// complete records the outcome of a finished body. A job cancelled
// while running keeps its cancelled state and the outcome is discarded.
func (d *Dispatcher) complete(j *job.Job, result any, elapsed time.Duration, err error) {
	ctx := context.Background()

	d.mu.Lock()
	rec, getErr := d.store.GetJob(ctx, j.ID)
	if getErr != nil {
		rec = j
	}

	if rec.State == job.StateCancelled {
		delete(d.runners, j.ID)
		delete(d.active, j.ID)
		delete(d.callbacks, j.ID)
		d.mu.Unlock()

		d.gate.Release()
		d.wake()
		return
	}

	now := time.Now().UTC()
	rec.CompletedAt = &now
	success := err == nil
	if success {
		rec.State = job.StateCompleted
		if putErr := d.store.PutResult(ctx, j.ID, result); putErr != nil {
			d.logger.Error("failed to record job result",
				slog.String("job_id", j.ID.String()),
				slog.String("error", putErr.Error()),
			)
		}
	} else {
		rec.State = job.StateFailed
		rec.LastError = err.Error()
		d.failures[j.ID] = err
	}
	if upErr := d.store.UpdateJob(ctx, rec); upErr != nil {
		d.logger.Error("failed to update finished job",
			slog.String("job_id", j.ID.String()),
			slog.String("error", upErr.Error()),
		)
	}

	cbs := d.callbacks[j.ID]
	delete(d.callbacks, j.ID)
	d.releaseWaitersLocked(j.ID)
	delete(d.runners, j.ID)
	delete(d.active, j.ID)
	d.mu.Unlock()

	for _, cb := range cbs {
		if success {
			cb(true, result, nil)
		} else {
			cb(false, nil, err)
		}
	}

	if success {
		d.extensions.EmitJobCompleted(ctx, rec, result, elapsed)
	} else {
		d.extensions.EmitJobFailed(ctx, rec, err)
	}

	d.gate.Release()
	d.wake()
}

// releaseWaitersLocked closes and removes the job's waiter channel.
// Callers must hold d.mu.
func (d *Dispatcher) releaseWaitersLocked(jobID id.JobID) {
	if w, ok := d.waiters[jobID]; ok {
		close(w)
		delete(d.waiters, jobID)
	}
}

// ──────────────────────────────────────────────────
// Waiting and callbacks
// ──────────────────────────────────────────────────

// Wait blocks until the job reaches a terminal state, the timeout
// elapses, or ctx is done. A timeout of zero or less means no timeout.
// On terminal: completed returns the result, failed returns the body's
// error, cancelled returns ErrJobCancelled. On timeout the result
// currently recorded (usually nil) is returned with a nil error, so
// callers distinguish the cases via GetJob.
func (d *Dispatcher) Wait(ctx context.Context, jobID id.JobID, timeout time.Duration) (any, error) {
	d.mu.Lock()
	rec, err := d.store.GetJob(ctx, jobID)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}

	var w chan struct{}
	if !rec.State.Terminal() {
		w = d.waiters[jobID]
		if w == nil {
			w = make(chan struct{})
			d.waiters[jobID] = w
		}
	}
	d.mu.Unlock()

	if w != nil {
		var timeoutCh <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			timeoutCh = timer.C
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			value, _, _ := d.store.GetResult(ctx, jobID)
			return value, nil
		case <-w:
		}
	}

	return d.outcome(ctx, jobID)
}

// outcome reads the terminal verdict for a job.
func (d *Dispatcher) outcome(ctx context.Context, jobID id.JobID) (any, error) {
	rec, err := d.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch rec.State {
	case job.StateCompleted:
		value, _, getErr := d.store.GetResult(ctx, jobID)
		return value, getErr
	case job.StateFailed:
		d.mu.Lock()
		ferr := d.failures[jobID]
		d.mu.Unlock()
		if ferr == nil {
			ferr = errors.New(rec.LastError)
		}
		return nil, ferr
	case job.StateCancelled:
		return nil, sched.ErrJobCancelled
	default:
		return nil, sched.ErrInvalidState
	}
}

// OnComplete registers a callback invoked when the job finishes. On an
// already-terminal job the callback fires immediately, asynchronously,
// with the stored outcome. Returns ErrJobNotFound for unknown IDs.
func (d *Dispatcher) OnComplete(jobID id.JobID, cb Callback) error {
	ctx := context.Background()

	d.mu.Lock()
	rec, err := d.store.GetJob(ctx, jobID)
	if err != nil {
		d.mu.Unlock()
		return err
	}

	if rec.State.Terminal() {
		d.mu.Unlock()
		go d.fireTerminal(ctx, rec, cb)
		return nil
	}

	d.callbacks[jobID] = append(d.callbacks[jobID], cb)
	d.mu.Unlock()
	return nil
}

func (d *Dispatcher) fireTerminal(ctx context.Context, rec *job.Job, cb Callback) {
	switch rec.State {
	case job.StateCompleted:
		value, _, _ := d.store.GetResult(ctx, rec.ID)
		cb(true, value, nil)
	case job.StateFailed:
		d.mu.Lock()
		ferr := d.failures[rec.ID]
		d.mu.Unlock()
		if ferr == nil {
			ferr = errors.New(rec.LastError)
		}
		cb(false, nil, ferr)
	case job.StateCancelled:
		cb(false, nil, sched.ErrJobCancelled)
	}
}

// ──────────────────────────────────────────────────
// Cancellation
// ──────────────────────────────────────────────────

// Cancel cancels a job. A pending job is removed from the queue and
// never runs. A running job has its context cancelled; the body must
// observe ctx for the cancellation to take effect, and its eventual
// return value is discarded either way. Returns false for terminal or
// unknown jobs.
func (d *Dispatcher) Cancel(jobID id.JobID) bool {
	ctx := context.Background()

	d.mu.Lock()
	if j := d.queue.Remove(jobID); j != nil {
		d.markCancelledLocked(ctx, j)
		d.mu.Unlock()

		d.extensions.EmitJobCancelled(ctx, j)
		return true
	}

	if cancel, ok := d.active[jobID]; ok {
		rec, err := d.store.GetJob(ctx, jobID)
		if err != nil {
			rec = &job.Job{ID: jobID}
		}
		d.markCancelledLocked(ctx, rec)
		d.mu.Unlock()

		cancel()
		d.extensions.EmitJobCancelled(ctx, rec)
		return true
	}

	// Between selection and start a job is in neither the queue nor the
	// active map; a registered runner with a non-terminal record
	// identifies it. Marking it cancelled here makes startJob discard it.
	if _, ok := d.runners[jobID]; ok {
		rec, err := d.store.GetJob(ctx, jobID)
		if err == nil && !rec.State.Terminal() {
			d.markCancelledLocked(ctx, rec)
			d.mu.Unlock()

			d.extensions.EmitJobCancelled(ctx, rec)
			return true
		}
	}
	d.mu.Unlock()
	return false
}

// markCancelledLocked stamps the cancelled state and clears the job's
// bookkeeping. Callers must hold d.mu.
func (d *Dispatcher) markCancelledLocked(ctx context.Context, j *job.Job) {
	now := time.Now().UTC()
	j.State = job.StateCancelled
	j.CompletedAt = &now
	if err := d.store.UpdateJob(ctx, j); err != nil {
		d.logger.Error("failed to mark job cancelled",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	d.releaseWaitersLocked(j.ID)
	delete(d.runners, j.ID)
	delete(d.callbacks, j.ID)
}

// ClearQueue cancels every pending job and returns how many were
// removed. Running jobs are not affected.
func (d *Dispatcher) ClearQueue(ctx context.Context) int {
	d.mu.Lock()
	drained := d.queue.Drain()
	for _, j := range drained {
		d.markCancelledLocked(ctx, j)
	}
	d.mu.Unlock()

	for _, j := range drained {
		d.extensions.EmitJobCancelled(ctx, j)
	}
	d.extensions.EmitQueueCleared(ctx, len(drained))
	return len(drained)
}

// ──────────────────────────────────────────────────
// Introspection and tuning
// ──────────────────────────────────────────────────

// SetLimit adjusts the concurrency limit and wakes the admission loop
// so a raised limit takes effect immediately. Shrinking never
// interrupts running jobs.
func (d *Dispatcher) SetLimit(n int) {
	d.gate.SetLimit(n)
	d.wake()
}

// QueueLen returns the number of jobs waiting for admission.
func (d *Dispatcher) QueueLen() int { return d.queue.Len() }

// ActiveCount returns the number of jobs currently executing.
func (d *Dispatcher) ActiveCount() int { return d.gate.Active() }
