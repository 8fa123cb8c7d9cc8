package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/sched/ext"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

const meterName = "github.com/xraph/sched/observability"

// Compile-time interface checks.
var (
	_ ext.Extension    = (*MetricsExtension)(nil)
	_ ext.JobSubmitted = (*MetricsExtension)(nil)
	_ ext.JobStarted   = (*MetricsExtension)(nil)
	_ ext.JobCompleted = (*MetricsExtension)(nil)
	_ ext.JobFailed    = (*MetricsExtension)(nil)
	_ ext.JobCancelled = (*MetricsExtension)(nil)
	_ ext.CronFired    = (*MetricsExtension)(nil)
	_ ext.QueueCleared = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via OpenTelemetry.
// Register it as a scheduler extension to automatically track submission
// rates, completion counts, failure rates, cancellations, the number of
// running jobs, and cron fires.
type MetricsExtension struct {
	submitted metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	cancelled metric.Int64Counter
	cronFired metric.Int64Counter
	cleared   metric.Int64Counter
	running   metric.Int64UpDownCounter

	// started tracks jobs counted in the running gauge. A job cancelled
	// while running reports neither completion nor failure, so the
	// cancellation hook must settle the gauge for jobs that had started.
	mu      sync.Mutex
	started map[id.JobID]struct{}
}

// NewMetricsExtension creates a MetricsExtension using the global
// OpenTelemetry meter provider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.GetMeterProvider().Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. Use this when the application wires its own metric pipeline, or a
// manual reader in tests.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{started: make(map[id.JobID]struct{})}
	m.submitted, _ = meter.Int64Counter("sched.job.submitted",
		metric.WithDescription("Total number of jobs submitted"))
	m.completed, _ = meter.Int64Counter("sched.job.completed",
		metric.WithDescription("Total number of jobs completed successfully"))
	m.failed, _ = meter.Int64Counter("sched.job.failed",
		metric.WithDescription("Total number of jobs that failed"))
	m.cancelled, _ = meter.Int64Counter("sched.job.cancelled",
		metric.WithDescription("Total number of jobs cancelled"))
	m.cronFired, _ = meter.Int64Counter("sched.cron.fired",
		metric.WithDescription("Total number of cron job fires"))
	m.cleared, _ = meter.Int64Counter("sched.queue.cleared",
		metric.WithDescription("Total number of pending jobs removed by queue clears"))
	m.running, _ = meter.Int64UpDownCounter("sched.job.running",
		metric.WithDescription("Number of jobs currently executing"))
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func jobAttrs(j *job.Job) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("job_name", j.Name))
}

// settleRunning decrements the running gauge once per started job,
// whichever terminal hook arrives.
func (m *MetricsExtension) settleRunning(ctx context.Context, j *job.Job) {
	m.mu.Lock()
	_, ok := m.started[j.ID]
	delete(m.started, j.ID)
	m.mu.Unlock()
	if ok {
		m.running.Add(ctx, -1, jobAttrs(j))
	}
}

// ── Job lifecycle hooks ─────────────────────────────

// OnJobSubmitted implements ext.JobSubmitted.
func (m *MetricsExtension) OnJobSubmitted(ctx context.Context, j *job.Job) error {
	m.submitted.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobStarted implements ext.JobStarted.
func (m *MetricsExtension) OnJobStarted(ctx context.Context, j *job.Job) error {
	m.mu.Lock()
	m.started[j.ID] = struct{}{}
	m.mu.Unlock()
	m.running.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, j *job.Job, _ any, _ time.Duration) error {
	m.settleRunning(ctx, j)
	m.completed.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, j *job.Job, _ error) error {
	m.settleRunning(ctx, j)
	m.failed.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobCancelled implements ext.JobCancelled.
func (m *MetricsExtension) OnJobCancelled(ctx context.Context, j *job.Job) error {
	m.settleRunning(ctx, j)
	m.cancelled.Add(ctx, 1, jobAttrs(j))
	return nil
}

// ── Other lifecycle hooks ───────────────────────────

// OnCronFired implements ext.CronFired.
func (m *MetricsExtension) OnCronFired(ctx context.Context, _ id.JobID, _ time.Time) error {
	m.cronFired.Add(ctx, 1)
	return nil
}

// OnQueueCleared implements ext.QueueCleared.
func (m *MetricsExtension) OnQueueCleared(ctx context.Context, cancelled int) error {
	m.cleared.Add(ctx, int64(cancelled))
	return nil
}
