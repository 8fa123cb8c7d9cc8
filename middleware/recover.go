package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/sched/job"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace.
// This is the isolation boundary that keeps a faulting body from
// crossing into the dispatcher or sibling jobs.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (result any, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("job body panicked",
					slog.String("job_id", j.ID.String()),
					slog.String("job_name", j.Name),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				result = nil
				retErr = fmt.Errorf("panic in job %s: %v", j.ID, r)
			}
		}()
		return next(ctx)
	}
}
