package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/sched/job"
)

const meterName = "github.com/xraph/sched"

// Metrics returns middleware that records per-job execution metrics using
// the global OpenTelemetry meter provider.
func Metrics() Middleware {
	return MetricsWithMeter(otel.GetMeterProvider().Meter(meterName))
}

// MetricsWithMeter is like Metrics but uses the given meter, which is
// useful when an application wires its own metric pipeline.
func MetricsWithMeter(meter metric.Meter) Middleware {
	duration, _ := meter.Float64Histogram(
		"sched.job.duration",
		metric.WithDescription("Job execution duration in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"sched.job.executions",
		metric.WithDescription("Total number of job executions"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) (any, error) {
		start := time.Now()
		result, err := next(ctx)
		elapsed := time.Since(start)

		status := "completed"
		if err != nil {
			status = "failed"
		}
		attrs := metric.WithAttributes(
			attribute.String("job_name", j.Name),
			attribute.String("status", status),
		)
		if duration != nil {
			duration.Record(ctx, elapsed.Seconds(), attrs)
		}
		if executions != nil {
			executions.Add(ctx, 1, attrs)
		}
		return result, err
	}
}
