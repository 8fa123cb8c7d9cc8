package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/sched/ext"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnJobSubmitted(_ context.Context, _ *job.Job) error {
	e.calls = append(e.calls, "OnJobSubmitted")
	return nil
}

func (e *allHooksExt) OnJobStarted(_ context.Context, _ *job.Job) error {
	e.calls = append(e.calls, "OnJobStarted")
	return nil
}

func (e *allHooksExt) OnJobCompleted(_ context.Context, _ *job.Job, _ any, _ time.Duration) error {
	e.calls = append(e.calls, "OnJobCompleted")
	return nil
}

func (e *allHooksExt) OnJobFailed(_ context.Context, _ *job.Job, _ error) error {
	e.calls = append(e.calls, "OnJobFailed")
	return nil
}

func (e *allHooksExt) OnJobCancelled(_ context.Context, _ *job.Job) error {
	e.calls = append(e.calls, "OnJobCancelled")
	return nil
}

func (e *allHooksExt) OnCronFired(_ context.Context, _ id.JobID, _ time.Time) error {
	e.calls = append(e.calls, "OnCronFired")
	return nil
}

func (e *allHooksExt) OnQueueCleared(_ context.Context, _ int) error {
	e.calls = append(e.calls, "OnQueueCleared")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// failingExt returns an error from every implemented hook.
type failingExt struct{}

func (failingExt) Name() string { return "failing" }

func (failingExt) OnJobSubmitted(_ context.Context, _ *job.Job) error {
	return errors.New("boom")
}

// startedOnlyExt implements a single hook.
type startedOnlyExt struct {
	started int
}

func (e *startedOnlyExt) Name() string { return "started-only" }

func (e *startedOnlyExt) OnJobStarted(_ context.Context, _ *job.Job) error {
	e.started++
	return nil
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func testJob() *job.Job {
	return &job.Job{ID: id.NewJobID(), State: job.StatePending}
}

func TestRegistry_AllHooks(t *testing.T) {
	t.Parallel()

	r := ext.NewRegistry(slog.Default())
	e := &allHooksExt{}
	r.Register(e)

	ctx := context.Background()
	j := testJob()
	r.EmitJobSubmitted(ctx, j)
	r.EmitJobStarted(ctx, j)
	r.EmitJobCompleted(ctx, j, 42, time.Millisecond)
	r.EmitJobFailed(ctx, j, errors.New("x"))
	r.EmitJobCancelled(ctx, j)
	r.EmitCronFired(ctx, j.ID, time.Now())
	r.EmitQueueCleared(ctx, 3)
	r.EmitShutdown(ctx)

	want := []string{
		"OnJobSubmitted", "OnJobStarted", "OnJobCompleted", "OnJobFailed",
		"OnJobCancelled", "OnCronFired", "OnQueueCleared", "OnShutdown",
	}
	if len(e.calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %v", len(e.calls), len(want), e.calls)
	}
	for i, w := range want {
		if e.calls[i] != w {
			t.Errorf("call %d = %q, want %q", i, e.calls[i], w)
		}
	}
}

func TestRegistry_PartialHooks(t *testing.T) {
	t.Parallel()

	r := ext.NewRegistry(slog.Default())
	e := &startedOnlyExt{}
	r.Register(e)

	ctx := context.Background()
	j := testJob()
	// Events the extension does not implement are no-ops.
	r.EmitJobSubmitted(ctx, j)
	r.EmitJobCompleted(ctx, j, nil, 0)
	r.EmitJobStarted(ctx, j)
	r.EmitJobStarted(ctx, j)

	if e.started != 2 {
		t.Errorf("started = %d, want 2", e.started)
	}
}

func TestRegistry_HookErrorsDoNotPropagate(t *testing.T) {
	t.Parallel()

	r := ext.NewRegistry(slog.Default())
	r.Register(failingExt{})
	counter := &startedOnlyExt{}
	r.Register(counter)

	// Must not panic, and later extensions still run.
	r.EmitJobSubmitted(context.Background(), testJob())
	r.EmitJobStarted(context.Background(), testJob())
	if counter.started != 1 {
		t.Errorf("started = %d, want 1", counter.started)
	}
}

func TestRegistry_Extensions(t *testing.T) {
	t.Parallel()

	r := ext.NewRegistry(slog.Default())
	r.Register(&allHooksExt{})
	r.Register(failingExt{})

	if got := len(r.Extensions()); got != 2 {
		t.Errorf("len(Extensions) = %d, want 2", got)
	}
}
