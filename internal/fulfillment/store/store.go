// Package store persists fulfillment records. Every state change is a single
// conditional write so concurrent callers cannot both win a claim, a serial
// assignment, or a delivery lease.
//
// Stores are pure I/O. The orchestrator owns the state machine.
package store

import "time"

// DefaultLease bounds how long one worker owns a delivery attempt before
// another may take it over.
const DefaultLease = 2 * time.Minute

type config struct {
	lease time.Duration
}

type Option func(*config)

// WithLease sets the delivery lease granted on claim and on takeover.
func WithLease(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.lease = d
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{lease: DefaultLease}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
