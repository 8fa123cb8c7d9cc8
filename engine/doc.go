// Package engine wires all sched subsystems together and provides the
// primary application-level API for submitting and tracking jobs.
//
// The engine package exists to break a fundamental import cycle: the root
// sched package defines Entity (imported by job and the store backends)
// and therefore cannot import those packages back. Engine sits above all
// subsystem packages and below the application layer.
//
// # Building an Engine
//
//	s, err := sched.New(
//	    sched.WithStore(memory.New()),
//	    sched.WithConcurrency(8),
//	)
//
//	eng, err := engine.Build(s,
//	    engine.WithExtension(myExtension),
//	    engine.WithMiddleware(myMiddleware),
//	)
//
// # Submitting Work
//
//	jobID, err := eng.Submit(ctx, job.RunnerFunc(func(ctx context.Context) (any, error) {
//	    return fetchReport(ctx)
//	}), job.WithPriority(5))
//
//	// Derived forms
//	eng.SubmitDelayed(ctx, body, 10*time.Second)
//	eng.SubmitRepeating(ctx, probe, time.Minute, 10)
//	eng.SubmitCron("0 9 * * *", report)
//
// # Tracking
//
//	result, err := eng.Wait(ctx, jobID, 30*time.Second)
//	eng.OnComplete(jobID, func(ok bool, result any, err error) { ... })
//	stats, _ := eng.Stats(ctx)
//
// # Options
//
//   - [WithExtension] — register a lifecycle extension
//   - [WithMiddleware] — add a middleware to the execution chain
//   - [WithTracerProvider] — set the OpenTelemetry tracer provider
//   - [WithMeterProvider] — set the OpenTelemetry meter provider
package engine
