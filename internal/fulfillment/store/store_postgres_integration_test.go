//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"phasegarden/internal/fulfillment/models"
	"phasegarden/internal/fulfillment/store"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/pkg/platform/sentinel"
	"phasegarden/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB, store.WithLease(time.Minute))
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "fulfillments"))
}

func newKey() paymodels.Key {
	return paymodels.Key{Provider: paymodels.ProviderMercadoPago, PaymentID: uuid.NewString()}
}

// TestConcurrentClaim verifies the primary key lets exactly one caller claim.
func (s *PostgresStoreSuite) TestConcurrentClaim() {
	ctx := context.Background()
	key := newKey()
	now := time.Now().UTC().Truncate(time.Microsecond)
	const goroutines = 50

	var wg sync.WaitGroup
	var claimed atomic.Int32
	var duplicates atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, record, err := s.store.TryClaim(ctx, key, "buyer@example.com", now)
			if err != nil {
				s.T().Errorf("claim: %v", err)
				return
			}
			s.Equal(key, record.Key)
			switch result {
			case models.Claimed:
				claimed.Add(1)
			case models.AlreadyClaimed:
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), claimed.Load())
	s.Equal(int32(goroutines-1), duplicates.Load())
}

func (s *PostgresStoreSuite) TestSerialLifecycle() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a, b := newKey(), newKey()
	_, _, err := s.store.TryClaim(ctx, a, "a@example.com", now)
	s.Require().NoError(err)
	_, _, err = s.store.TryClaim(ctx, b, "b@example.com", now)
	s.Require().NoError(err)

	record, err := s.store.AssignSerial(ctx, a, "AAAA-BBBB-CCCC-DDDD", now)
	s.Require().NoError(err)
	s.Equal("AAAA-BBBB-CCCC-DDDD", record.Serial)

	_, err = s.store.AssignSerial(ctx, a, "EEEE-FFFF-GGGG-HHHH", now)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	_, err = s.store.AssignSerial(ctx, b, "AAAA-BBBB-CCCC-DDDD", now)
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.AssignSerial(ctx, newKey(), "IIII-JJJJ-KKKK-LLLL", now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeliveryLease() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	key := newKey()
	_, _, err := s.store.TryClaim(ctx, key, "", now)
	s.Require().NoError(err)

	_, err = s.store.AcquireDelivery(ctx, key, "", now.Add(10*time.Second), false)
	s.ErrorIs(err, sentinel.ErrConflict)

	record, err := s.store.AcquireDelivery(ctx, key, "late@example.com", now.Add(2*time.Minute), false)
	s.Require().NoError(err)
	s.Equal("late@example.com", record.PayerEmail)

	sent, err := s.store.MarkSent(ctx, key, now.Add(3*time.Minute))
	s.Require().NoError(err)
	s.Equal(models.DeliverySent, sent.Status)
	s.Equal(1, sent.Attempts)
	s.Nil(sent.LeaseUntil)

	_, err = s.store.AcquireDelivery(ctx, key, "", now.Add(4*time.Minute), false)
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.AcquireDelivery(ctx, key, "", now.Add(4*time.Minute), true)
	s.NoError(err)
}

func (s *PostgresStoreSuite) TestListing() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	old, recent, failed := newKey(), newKey(), newKey()
	for _, k := range []paymodels.Key{old, failed} {
		_, _, err := s.store.TryClaim(ctx, k, "", now.Add(-time.Hour))
		s.Require().NoError(err)
	}
	_, _, err := s.store.TryClaim(ctx, recent, "", now)
	s.Require().NoError(err)
	_, err = s.store.MarkFailed(ctx, failed, "bounced", now.Add(-time.Hour))
	s.Require().NoError(err)

	stale, err := s.store.ListStalePending(ctx, now.Add(-time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(stale, 1)
	s.Equal(old, stale[0].Key)

	byStatus, err := s.store.ListByStatus(ctx, []models.DeliveryStatus{models.DeliveryPending, models.DeliveryFailed}, 0)
	s.Require().NoError(err)
	s.Len(byStatus, 3)
}
