package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/sched"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/interval"
	"github.com/xraph/sched/job"
)

// SubmitDelayed submits a job whose body runs no earlier than delay
// from now. The delay is part of the body, so the job occupies a
// concurrency slot only once admitted, and cancellation during the
// delay takes effect immediately.
func (eng *Engine) SubmitDelayed(ctx context.Context, r job.Runner, delay time.Duration, opts ...job.Option) (id.JobID, error) {
	if r == nil {
		return id.JobID{}, sched.ErrNilRunner
	}

	wrapped := job.RunnerFunc(func(ctx context.Context) (any, error) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		return r.Run(ctx)
	})
	return eng.Submit(ctx, wrapped, opts...)
}

// SubmitRepeating submits a job whose body runs count times with a
// fixed interval between iterations. A count of zero or less repeats
// until cancelled. The job completes with the number of iterations
// performed as its result; only the count is retained between
// iterations, not per-iteration values.
func (eng *Engine) SubmitRepeating(ctx context.Context, r job.Runner, every time.Duration, count int, opts ...job.Option) (id.JobID, error) {
	return eng.SubmitRepeatingStrategy(ctx, r, interval.NewConstant(every), count, opts...)
}

// SubmitRepeatingStrategy is SubmitRepeating with a pluggable pacing
// strategy. An iteration returning an error fails the whole job.
func (eng *Engine) SubmitRepeatingStrategy(ctx context.Context, r job.Runner, pacing interval.Strategy, count int, opts ...job.Option) (id.JobID, error) {
	if r == nil {
		return id.JobID{}, sched.ErrNilRunner
	}

	wrapped := job.RunnerFunc(func(ctx context.Context) (any, error) {
		iterations := 0
		for {
			if _, err := r.Run(ctx); err != nil {
				return nil, fmt.Errorf("iteration %d: %w", iterations+1, err)
			}
			iterations++
			if count > 0 && iterations >= count {
				return iterations, nil
			}

			timer := time.NewTimer(pacing.Next(iterations))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	})
	return eng.Submit(ctx, wrapped, opts...)
}
