// Package middleware provides composable wrappers around job execution.
//
// A Middleware receives the job being executed and a next Handler, and may
// run code before and after the call, short-circuit it, or transform the
// returned value and error. Middlewares compose with Chain, which applies
// them outermost-first:
//
//	mw := middleware.Chain(
//		middleware.Recover(logger),
//		middleware.Tracing(),
//		middleware.Metrics(),
//		middleware.Logging(logger),
//		middleware.Timeout(logger),
//	)
//	result, err := mw(ctx, j, body)
//
// The built-in middlewares cover panic isolation (Recover), structured
// execution logging (Logging), per-job deadlines (Timeout), and
// OpenTelemetry metrics and tracing.
package middleware
