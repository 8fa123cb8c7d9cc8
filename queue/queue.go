package queue

import (
	"sort"
	"sync"

	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

// Pending is the ordered container of not-yet-running jobs. Ordering is
// total: priority descending, then submission sequence ascending, so
// admission is deterministic and stable under priority ties.
// It is safe for concurrent use.
type Pending struct {
	mu    sync.Mutex
	items []*job.Job
}

// NewPending creates an empty pending queue.
func NewPending() *Pending {
	return &Pending{}
}

// before reports whether a precedes b in admission order.
func before(a, b *job.Job) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Seq < b.Seq
}

// Push inserts the job maintaining the total order.
func (p *Pending) Push(j *job.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.Search(len(p.items), func(i int) bool {
		return before(j, p.items[i])
	})
	p.items = append(p.items, nil)
	copy(p.items[i+1:], p.items[i:])
	p.items[i] = j
}

// SelectNext removes and returns the first job for which eligible
// returns true. It scans past blocked entries rather than stopping at
// the head: a lower-priority eligible job may run while a higher-priority
// blocked job waits. Returns nil if no queued job is eligible.
func (p *Pending) SelectNext(eligible func(*job.Job) bool) *job.Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, j := range p.items {
		if eligible(j) {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return j
		}
	}
	return nil
}

// Remove removes and returns the queued job with the given ID, or nil
// if it is not queued.
func (p *Pending) Remove(jobID id.JobID) *job.Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, j := range p.items {
		if j.ID == jobID {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return j
		}
	}
	return nil
}

// Drain removes and returns all queued jobs in admission order.
func (p *Pending) Drain() []*job.Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	drained := p.items
	p.items = nil
	return drained
}

// Len returns the number of queued jobs.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Snapshot returns a copy of the queued jobs in admission order.
func (p *Pending) Snapshot() []*job.Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*job.Job, len(p.items))
	copy(out, p.items)
	return out
}
