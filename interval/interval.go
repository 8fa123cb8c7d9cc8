// Package interval provides pluggable pacing strategies for repeating
// jobs. All strategies are safe for concurrent use (they are stateless).
package interval

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before the next iteration of a repeating
// job.
type Strategy interface {
	// Next returns how long to wait after iteration n (1-indexed) before
	// the following iteration starts.
	Next(iteration int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of iteration number.
// This is the pacing of a fixed-interval repeating job.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant pacing strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Next returns the fixed interval.
func (c *Constant) Next(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Linear
// ──────────────────────────────────────────────────

// Linear increases the delay linearly with the iteration number.
// Next = min(Initial * iteration, Max).
type Linear struct {
	Initial time.Duration
	Max     time.Duration
}

// NewLinear creates a linear pacing strategy.
func NewLinear(initial, maxDelay time.Duration) *Linear {
	return &Linear{Initial: initial, Max: maxDelay}
}

// Next returns Initial * iteration, capped at Max.
func (l *Linear) Next(iteration int) time.Duration {
	d := l.Initial * time.Duration(iteration)
	if l.Max > 0 && d > l.Max {
		return l.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// ExponentialWithJitter (full jitter)
// ──────────────────────────────────────────────────

// ExponentialWithJitter applies full jitter to an exponential base.
// Next = random value in [0, min(Initial * 2^(iteration-1), Max)].
// Useful for repeating probe jobs that should decorrelate over time.
type ExponentialWithJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponentialWithJitter creates an exponential pacing strategy with
// full jitter.
func NewExponentialWithJitter(initial, maxDelay time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Initial: initial, Max: maxDelay}
}

// Next returns a random duration in [0, min(Initial * 2^(iteration-1), Max)].
func (e *ExponentialWithJitter) Next(iteration int) time.Duration {
	base := float64(e.Initial) * math.Pow(2, float64(iteration-1))
	if e.Max > 0 && base > float64(e.Max) {
		base = float64(e.Max)
	}
	return time.Duration(rand.Float64() * base) //nolint:gosec // jitter intentionally uses non-crypto rand
}
