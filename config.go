package sched

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds configuration for the Scheduler.
type Config struct {
	// Concurrency is the maximum number of jobs running simultaneously.
	Concurrency int `env:"SCHED_CONCURRENCY"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `env:"SCHED_SHUTDOWN_TIMEOUT"`

	// RateLimit is the maximum sustained job admissions per second.
	// Zero disables rate limiting.
	RateLimit float64 `env:"SCHED_RATE_LIMIT"`

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int `env:"SCHED_RATE_BURST"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by SCHED_* environment
// variables.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("sched: parse env config: %w", err)
	}
	return cfg, nil
}
