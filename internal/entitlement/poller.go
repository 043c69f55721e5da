package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	paymodels "phasegarden/internal/payment/models"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollAttempts = 5
)

var errNotReady = errors.New("entitlement not ready")

// Source is anything that can answer a point-in-time lookup: the Service
// itself or an HTTP client against the entitlement endpoint.
type Source interface {
	Lookup(ctx context.Context, key paymodels.Key) (*Entitlement, error)
}

// Poller re-reads an entitlement a bounded number of times until it is
// terminal. It runs on the client side; the server never blocks on it.
type Poller struct {
	source   Source
	interval time.Duration
	attempts int
}

type PollerOption func(*Poller)

func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithPollAttempts(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.attempts = n
		}
	}
}

func NewPoller(source Source, opts ...PollerOption) *Poller {
	p := &Poller{source: source, interval: DefaultPollInterval, attempts: DefaultPollAttempts}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait returns the first terminal entitlement, or the last one read when the
// attempts run out. A lookup error stops polling.
func (p *Poller) Wait(ctx context.Context, key paymodels.Key) (*Entitlement, error) {
	var last *Entitlement
	op := func() error {
		e, err := p.source.Lookup(ctx, key)
		if err != nil {
			return backoff.Permanent(err)
		}
		last = e
		if e.Terminal() {
			return nil
		}
		return errNotReady
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.interval), uint64(p.attempts-1)),
		ctx,
	)
	err := backoff.Retry(op, b)
	switch {
	case err == nil:
		return last, nil
	case errors.Is(err, errNotReady):
		if ctx.Err() != nil {
			return last, ctx.Err()
		}
		return last, nil
	default:
		return last, err
	}
}
