package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/sched"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

func newJob(name string, state job.State, priority int, seq uint64) *job.Job {
	return &job.Job{
		Entity:   sched.NewEntity(),
		ID:       id.NewJobID(),
		Name:     name,
		Seq:      seq,
		Priority: priority,
		State:    state,
	}
}

// ──────────────────────────────────────────────────
// Lifecycle tests
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, sched.ErrStoreClosed) {
		t.Fatalf("Ping after Close = %v, want ErrStoreClosed", err)
	}
}

// ──────────────────────────────────────────────────
// Job record tests
// ──────────────────────────────────────────────────

func TestInsertAndGet(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob("alpha", job.StatePending, 0, 1)
	if err := s.InsertJob(ctx, j); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertJob(ctx, j); !errors.Is(err, sched.ErrJobAlreadyExists) {
		t.Fatalf("duplicate insert = %v, want ErrJobAlreadyExists", err)
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "alpha" || got.State != job.StatePending {
		t.Fatalf("got job %+v", got)
	}

	// The store must hand out copies, not its own record.
	got.State = job.StateRunning
	again, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.State != job.StatePending {
		t.Fatal("mutating a returned job leaked into the store")
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	s := New()

	_, err := s.GetJob(context.Background(), id.NewJobID())
	if !errors.Is(err, sched.ErrJobNotFound) {
		t.Fatalf("got %v, want ErrJobNotFound", err)
	}
}

func TestUpdateJob(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob("beta", job.StatePending, 0, 1)
	if err := s.UpdateJob(ctx, j); !errors.Is(err, sched.ErrJobNotFound) {
		t.Fatalf("update before insert = %v, want ErrJobNotFound", err)
	}

	if err := s.InsertJob(ctx, j); err != nil {
		t.Fatalf("insert: %v", err)
	}
	j.State = job.StateRunning
	if err := s.UpdateJob(ctx, j); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != job.StateRunning {
		t.Fatalf("state = %v, want running", got.State)
	}
}

func TestListJobsOrderAndPagination(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	// Insert out of sequence order.
	for _, seq := range []uint64{3, 1, 2, 5, 4} {
		if err := s.InsertJob(ctx, newJob("job", job.StatePending, 0, seq)); err != nil {
			t.Fatalf("insert seq %d: %v", seq, err)
		}
	}

	all, err := s.ListJobs(ctx, job.ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	for i, j := range all {
		if j.Seq != uint64(i+1) {
			t.Fatalf("jobs[%d].Seq = %d, want %d", i, j.Seq, i+1)
		}
	}

	page, err := s.ListJobs(ctx, job.ListOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 2 || page[1].Seq != 3 {
		t.Fatalf("page = %v", page)
	}

	none, err := s.ListJobs(ctx, job.ListOpts{Offset: 10})
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("len = %d, want 0", len(none))
	}
}

func TestCountJobs(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	states := []job.State{
		job.StatePending, job.StatePending,
		job.StateRunning,
		job.StateCompleted, job.StateCompleted, job.StateCompleted,
	}
	for i, st := range states {
		if err := s.InsertJob(ctx, newJob("job", st, 0, uint64(i))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	tests := []struct {
		state job.State
		want  int64
	}{
		{"", 6},
		{job.StatePending, 2},
		{job.StateRunning, 1},
		{job.StateCompleted, 3},
		{job.StateFailed, 0},
	}
	for _, tt := range tests {
		got, err := s.CountJobs(ctx, job.CountOpts{State: tt.state})
		if err != nil {
			t.Fatalf("count %q: %v", tt.state, err)
		}
		if got != tt.want {
			t.Errorf("count %q = %d, want %d", tt.state, got, tt.want)
		}
	}
}

// ──────────────────────────────────────────────────
// Result tests
// ──────────────────────────────────────────────────

func TestResultWriteOnce(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	jobID := id.NewJobID()

	if _, ok, err := s.GetResult(ctx, jobID); err != nil || ok {
		t.Fatalf("result before put: ok=%v err=%v", ok, err)
	}

	if err := s.PutResult(ctx, jobID, 42); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutResult(ctx, jobID, 43); !errors.Is(err, sched.ErrResultExists) {
		t.Fatalf("second put = %v, want ErrResultExists", err)
	}

	value, ok, err := s.GetResult(ctx, jobID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if value != 42 {
		t.Fatalf("value = %v, want 42 (first write wins)", value)
	}
}

func TestNilResultIsARecordedResult(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	jobID := id.NewJobID()

	if err := s.PutResult(ctx, jobID, nil); err != nil {
		t.Fatalf("put nil: %v", err)
	}
	value, ok, err := s.GetResult(ctx, jobID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || value != nil {
		t.Fatalf("got (%v, %v), want (nil, true)", value, ok)
	}
	if err := s.PutResult(ctx, jobID, "late"); !errors.Is(err, sched.ErrResultExists) {
		t.Fatalf("overwrite of nil result = %v, want ErrResultExists", err)
	}
}
