package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
	"github.com/xraph/sched/observability"
)

type harness struct {
	ext    *observability.MetricsExtension
	reader *sdkmetric.ManualReader
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return &harness{
		ext:    observability.NewMetricsExtensionWithMeter(provider.Meter("test")),
		reader: reader,
	}
}

// sum collects current metrics and returns the total for the named
// instrument across all attribute sets, or 0 when unrecorded.
func (h *harness) sum(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func newTestJob() *job.Job {
	return &job.Job{
		ID:   id.NewJobID(),
		Name: "send-email",
	}
}

func TestMetricsExtension_Name(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if got := h.ext.Name(); got != "observability-metrics" {
		t.Errorf("Name() = %q, want %q", got, "observability-metrics")
	}
}

func TestMetricsExtension_JobSubmitted(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.ext.OnJobSubmitted(context.Background(), newTestJob()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.job.submitted"); got != 1 {
		t.Errorf("submitted: want 1, got %d", got)
	}
}

func TestMetricsExtension_RunningGauge(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	j := newTestJob()

	if err := h.ext.OnJobStarted(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.job.running"); got != 1 {
		t.Errorf("running after start: want 1, got %d", got)
	}

	if err := h.ext.OnJobCompleted(ctx, j, "ok", 50*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.job.running"); got != 0 {
		t.Errorf("running after complete: want 0, got %d", got)
	}
	if got := h.sum(t, "sched.job.completed"); got != 1 {
		t.Errorf("completed: want 1, got %d", got)
	}
}

func TestMetricsExtension_JobFailed(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	j := newTestJob()

	if err := h.ext.OnJobStarted(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.ext.OnJobFailed(ctx, j, errors.New("boom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.job.failed"); got != 1 {
		t.Errorf("failed: want 1, got %d", got)
	}
	if got := h.sum(t, "sched.job.running"); got != 0 {
		t.Errorf("running after failure: want 0, got %d", got)
	}
}

func TestMetricsExtension_JobCancelled(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.ext.OnJobCancelled(context.Background(), newTestJob()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.job.cancelled"); got != 1 {
		t.Errorf("cancelled: want 1, got %d", got)
	}
	// A job cancelled before it ever started never touched the gauge.
	if got := h.sum(t, "sched.job.running"); got != 0 {
		t.Errorf("running after pending cancel: want 0, got %d", got)
	}
}

func TestMetricsExtension_RunningGaugeCancelledWhileRunning(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	j := newTestJob()

	if err := h.ext.OnJobStarted(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.job.running"); got != 1 {
		t.Errorf("running after start: want 1, got %d", got)
	}

	// Cancelling a running job is its terminal hook; completion and
	// failure never fire for it.
	if err := h.ext.OnJobCancelled(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.job.running"); got != 0 {
		t.Errorf("running after cancel: want 0, got %d", got)
	}
	if got := h.sum(t, "sched.job.cancelled"); got != 1 {
		t.Errorf("cancelled: want 1, got %d", got)
	}
}

func TestMetricsExtension_CronFired(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.ext.OnCronFired(context.Background(), id.NewJobID(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.cron.fired"); got != 1 {
		t.Errorf("cron fired: want 1, got %d", got)
	}
}

func TestMetricsExtension_QueueCleared(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.ext.OnQueueCleared(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.sum(t, "sched.queue.cleared"); got != 7 {
		t.Errorf("cleared: want 7, got %d", got)
	}
}
