package queue

import (
	"sync"

	"golang.org/x/time/rate"
)

// Gate is the counting semaphore bounding the number of simultaneously
// running jobs, with an optional token-bucket admission rate limit.
// It is safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	limit   int
	active  int
	limiter *rate.Limiter
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithRate sets the maximum sustained admissions per second and the
// token-bucket burst size. A burst of zero or less defaults to 1.
func WithRate(perSecond float64, burst int) GateOption {
	return func(g *Gate) {
		if perSecond <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewGate creates a Gate with the given concurrency limit. A limit of
// zero or less means unbounded.
func NewGate(limit int, opts ...GateOption) *Gate {
	g := &Gate{limit: limit}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TryAcquire claims a slot if one is available and the rate limit
// allows. The caller MUST call Release when the job completes.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.limit > 0 && g.active >= g.limit {
		return false
	}
	if g.limiter != nil && !g.limiter.Allow() {
		return false
	}
	g.active++
	return true
}

// Release returns a slot to the gate.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active > 0 {
		g.active--
	}
}

// SetLimit dynamically adjusts the concurrency limit. Shrinking below
// the current active count never interrupts running jobs; the active
// set drains down to the new limit as slots release.
func (g *Gate) SetLimit(limit int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limit = limit
}

// Active returns the current number of claimed slots.
func (g *Gate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Limit returns the current concurrency limit.
func (g *Gate) Limit() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit
}
