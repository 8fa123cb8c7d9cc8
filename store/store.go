// Package store defines the aggregate persistence interface. The job
// subsystem defines its own store interface; the composite Store adds the
// lifecycle methods the scheduler needs. Backends: Memory and Redis.
package store

import (
	"context"

	"github.com/xraph/sched/job"
)

// Store is the aggregate persistence interface.
// A single backend (memory, redis) implements all of it.
type Store interface {
	job.Store

	// Migrate prepares any backend schema or indexes.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
