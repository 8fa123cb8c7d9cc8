package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/sched/job"
)

const tracerName = "github.com/xraph/sched"

// Tracing returns middleware that wraps each job execution in an
// OpenTelemetry span using the global tracer provider.
func Tracing() Middleware {
	return TracingWithTracer(otel.GetTracerProvider().Tracer(tracerName))
}

// TracingWithTracer is like Tracing but uses the given tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (any, error) {
		ctx, span := tracer.Start(ctx, "sched.job.execute",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("sched.job.id", j.ID.String()),
				attribute.String("sched.job.name", j.Name),
				attribute.Int("sched.job.priority", j.Priority),
			),
		)
		defer span.End()

		result, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return result, err
	}
}
