// Package observability provides an OpenTelemetry-based metrics extension
// for sched. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for job submission, completion, failure,
// cancellation, queue clears, and cron fires, plus a gauge of currently
// running jobs.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
