package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/sched"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// cronRunner wraps a robfig cron runner and submits one job per fire.
type cronRunner struct {
	eng    *Engine
	logger *slog.Logger
	c      *cronlib.Cron

	mu      sync.Mutex
	entries map[id.CronID]cronlib.EntryID
}

func newCronRunner(eng *Engine, logger *slog.Logger) *cronRunner {
	return &cronRunner{
		eng:     eng,
		logger:  logger,
		c:       cronlib.New(cronlib.WithParser(cronParser)),
		entries: make(map[id.CronID]cronlib.EntryID),
	}
}

func (cr *cronRunner) Start() { cr.c.Start() }

// Stop halts firing and waits for in-flight fire functions. Fires only
// submit; the submitted jobs drain with the dispatcher.
func (cr *cronRunner) Stop() { <-cr.c.Stop().Done() }

// fire submits one occurrence under a pre-allocated job ID so the
// CronFired event can reference it.
func (cr *cronRunner) fire(cronID id.CronID, r job.Runner, opts []job.Option) {
	ctx := context.Background()
	jobID := id.NewJobID()

	fireOpts := make([]job.Option, 0, len(opts)+1)
	fireOpts = append(fireOpts, opts...)
	fireOpts = append(fireOpts, job.WithID(jobID))

	if _, err := cr.eng.Submit(ctx, r, fireOpts...); err != nil {
		// A failed occurrence never stops the schedule.
		cr.logger.Error("cron occurrence submission failed",
			slog.String("cron_id", cronID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	cr.eng.extensions.EmitCronFired(ctx, jobID, time.Now().UTC())
}

// SubmitCron schedules a fresh submission of the runner on a cron
// expression. Standard 5-field specs and descriptors like "@every 30s"
// are accepted. Each fire is an independent job; per-fire IDs are
// generated, so a job.WithID option is rejected here.
// Firing begins when the engine starts and stops with RemoveCron or
// engine shutdown.
func (eng *Engine) SubmitCron(spec string, r job.Runner, opts ...job.Option) (id.CronID, error) {
	if r == nil {
		return id.CronID{}, sched.ErrNilRunner
	}

	o := job.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.ID.IsNil() {
		return id.CronID{}, fmt.Errorf("sched: cron submissions generate per-fire job IDs, WithID is not applicable")
	}

	cronID := id.NewCronID()
	entryID, err := eng.cron.c.AddFunc(spec, func() {
		eng.cron.fire(cronID, r, opts)
	})
	if err != nil {
		return id.CronID{}, fmt.Errorf("sched: invalid cron spec %q: %w", spec, err)
	}

	eng.cron.mu.Lock()
	eng.cron.entries[cronID] = entryID
	eng.cron.mu.Unlock()

	eng.logger.Info("cron schedule registered",
		slog.String("cron_id", cronID.String()),
		slog.String("spec", spec),
	)
	return cronID, nil
}

// RemoveCron stops future fires of a cron schedule. Jobs already
// submitted by past fires are unaffected. Returns false for unknown
// IDs.
func (eng *Engine) RemoveCron(cronID id.CronID) bool {
	eng.cron.mu.Lock()
	entryID, ok := eng.cron.entries[cronID]
	if ok {
		delete(eng.cron.entries, cronID)
	}
	eng.cron.mu.Unlock()

	if !ok {
		return false
	}
	eng.cron.c.Remove(entryID)
	return true
}
