// Package memory implements store.Store entirely in memory.
// It is the default backend for single-process schedulers and the one
// used throughout the test suite.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/sched"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

// Compile-time interface check. We can't import store here without
// widening the dependency graph, so we verify the job subsystem directly.
var _ job.Store = (*Store)(nil)

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access.
type Store struct {
	mu sync.RWMutex

	jobs    map[string]*job.Job
	results map[string]any
	closed  bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:    make(map[string]*job.Job),
		results: make(map[string]any),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping succeeds unless the store has been closed.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return sched.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Data is retained so late readers still
// see final job states.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// InsertJob persists a new job record in pending state.
func (m *Store) InsertJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return sched.ErrJobAlreadyExists
	}
	m.jobs[key] = j.Clone()
	return nil
}

// GetJob retrieves a job record by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, sched.ErrJobNotFound
	}
	return j.Clone(), nil
}

// UpdateJob persists changes to an existing job record.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, ok := m.jobs[key]; !ok {
		return sched.ErrJobNotFound
	}
	cp := j.Clone()
	cp.Touch()
	m.jobs[key] = cp
	return nil
}

// ListJobs returns job records ordered by submission sequence.
func (m *Store) ListJobs(_ context.Context, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j.Clone())
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Seq < jobs[k].Seq })

	if opts.Offset > 0 {
		if opts.Offset >= len(jobs) {
			return nil, nil
		}
		jobs = jobs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(jobs) {
		jobs = jobs[:opts.Limit]
	}
	return jobs, nil
}

// CountJobs returns the number of jobs matching the given options.
func (m *Store) CountJobs(_ context.Context, opts job.CountOpts) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, j := range m.jobs {
		if opts.State != "" && j.State != opts.State {
			continue
		}
		count++
	}
	return count, nil
}

// PutResult records the outcome value for a completed job. Results are
// write-once: a second write for the same job ID fails.
func (m *Store) PutResult(_ context.Context, jobID id.JobID, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := jobID.String()
	if _, exists := m.results[key]; exists {
		return sched.ErrResultExists
	}
	m.results[key] = value
	return nil
}

// GetResult returns the recorded outcome for a job.
func (m *Store) GetResult(_ context.Context, jobID id.JobID) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.results[jobID.String()]
	return value, ok, nil
}
