package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phasegarden/internal/entitlement"
	"phasegarden/internal/fulfillment/models"
	paymodels "phasegarden/internal/payment/models"
)

// scriptedSource returns the scripted entitlements in order, repeating the last.
type scriptedSource struct {
	script []*entitlement.Entitlement
	err    error
	calls  int
}

func (s *scriptedSource) Lookup(context.Context, paymodels.Key) (*entitlement.Entitlement, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls - 1
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i], nil
}

func TestPollerWait(t *testing.T) {
	key := paymodels.Key{Provider: paymodels.ProviderStripe, PaymentID: "pi_1"}
	missing := &entitlement.Entitlement{Key: key}
	pending := &entitlement.Entitlement{Key: key, Found: true, DeliveryStatus: models.DeliveryPending}
	sent := &entitlement.Entitlement{Key: key, Found: true, Serial: "S", DeliveryStatus: models.DeliverySent}

	t.Run("stops at first terminal read", func(t *testing.T) {
		src := &scriptedSource{script: []*entitlement.Entitlement{missing, pending, sent}}
		p := entitlement.NewPoller(src, entitlement.WithPollInterval(time.Millisecond))

		e, err := p.Wait(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, sent, e)
		assert.Equal(t, 3, src.calls)
	})

	t.Run("bounded attempts return last read", func(t *testing.T) {
		src := &scriptedSource{script: []*entitlement.Entitlement{pending}}
		p := entitlement.NewPoller(src,
			entitlement.WithPollInterval(time.Millisecond),
			entitlement.WithPollAttempts(5),
		)

		e, err := p.Wait(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, pending, e)
		assert.Equal(t, 5, src.calls)
	})

	t.Run("lookup error stops immediately", func(t *testing.T) {
		src := &scriptedSource{err: errors.New("boom")}
		p := entitlement.NewPoller(src, entitlement.WithPollInterval(time.Millisecond))

		_, err := p.Wait(context.Background(), key)
		assert.EqualError(t, err, "boom")
		assert.Equal(t, 1, src.calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		src := &scriptedSource{script: []*entitlement.Entitlement{pending}}
		p := entitlement.NewPoller(src, entitlement.WithPollInterval(time.Hour))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		e, err := p.Wait(ctx, key)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, pending, e)
		assert.Equal(t, 1, src.calls)
	})
}
