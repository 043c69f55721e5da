package entitlement_test

//go:generate mockgen -source=entitlement.go -destination=mocks/mocks.go -package=mocks Reader,Cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"phasegarden/internal/entitlement"
	"phasegarden/internal/entitlement/mocks"
	"phasegarden/internal/fulfillment/models"
	"phasegarden/internal/fulfillment/store"
	paymodels "phasegarden/internal/payment/models"
	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/sentinel"
)

type LookupSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *store.InMemoryStore
	svc   *entitlement.Service
}

func TestLookupSuite(t *testing.T) {
	suite.Run(t, new(LookupSuite))
}

func (s *LookupSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	s.store = store.NewMemory()
	var err error
	s.svc, err = entitlement.New(s.store, entitlement.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
}

func (s *LookupSuite) claim(id string) paymodels.Key {
	key := paymodels.Key{Provider: paymodels.ProviderStripe, PaymentID: id}
	_, _, err := s.store.TryClaim(s.ctx, key, "buyer@example.com", s.now)
	s.Require().NoError(err)
	return key
}

func (s *LookupSuite) TestNew() {
	_, err := entitlement.New(nil)
	s.Error(err)
}

func (s *LookupSuite) TestLookup() {
	s.Run("unknown key is not found without error", func() {
		e, err := s.svc.Lookup(s.ctx, paymodels.Key{Provider: paymodels.ProviderStripe, PaymentID: "pi_none"})
		s.Require().NoError(err)
		s.False(e.Found)
		s.Empty(e.Serial)
		s.False(e.Terminal())
	})

	s.Run("empty key is bad request", func() {
		_, err := s.svc.Lookup(s.ctx, paymodels.Key{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("pending without serial", func() {
		key := s.claim("pi_pending")
		e, err := s.svc.Lookup(s.ctx, key)
		s.Require().NoError(err)
		s.True(e.Found)
		s.Empty(e.Serial)
		s.Equal(models.DeliveryPending, e.DeliveryStatus)
		s.False(e.Terminal())
	})

	s.Run("sent exposes serial", func() {
		key := s.claim("pi_sent")
		_, err := s.store.AssignSerial(s.ctx, key, "ABCD-EFGH-IJKL-MNOP", s.now)
		s.Require().NoError(err)
		_, err = s.store.MarkSent(s.ctx, key, s.now)
		s.Require().NoError(err)

		e, err := s.svc.Lookup(s.ctx, key)
		s.Require().NoError(err)
		s.Equal("ABCD-EFGH-IJKL-MNOP", e.Serial)
		s.Equal("buyer@example.com", e.PayerEmail)
		s.Require().NotNil(e.FulfilledAt)
		s.True(e.Terminal())
	})

	s.Run("failed shows hint and hides internal reason", func() {
		key := s.claim("pi_failed")
		_, err := s.store.MarkFailed(s.ctx, key, "resend: 422 invalid from", s.now)
		s.Require().NoError(err)

		e, err := s.svc.Lookup(s.ctx, key)
		s.Require().NoError(err)
		s.Equal(entitlement.HintDeliveryFailed, e.Hint)
		s.NotContains(e.Hint, "422")
		s.True(e.Terminal())
	})

	s.Run("lookup never writes", func() {
		key := s.claim("pi_readonly")
		before, err := s.store.Get(s.ctx, key)
		s.Require().NoError(err)
		for i := 0; i < 3; i++ {
			_, err := s.svc.Lookup(s.ctx, key)
			s.Require().NoError(err)
		}
		after, err := s.store.Get(s.ctx, key)
		s.Require().NoError(err)
		s.Equal(before, after)
	})
}

type CacheSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	reader *mocks.MockReader
	cache  *mocks.MockCache
	svc    *entitlement.Service
	key    paymodels.Key
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.reader = mocks.NewMockReader(s.ctrl)
	s.cache = mocks.NewMockCache(s.ctrl)
	s.key = paymodels.Key{Provider: paymodels.ProviderMercadoPago, PaymentID: "123"}
	var err error
	s.svc, err = entitlement.New(s.reader,
		entitlement.WithCache(s.cache),
		entitlement.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
}

func (s *CacheSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CacheSuite) TestHitSkipsStore() {
	cached := &entitlement.Entitlement{Key: s.key, Found: true, Serial: "ABCD-EFGH-IJKL-MNOP", DeliveryStatus: models.DeliverySent}
	s.cache.EXPECT().Get(gomock.Any(), s.key).Return(cached, nil)

	e, err := s.svc.Lookup(context.Background(), s.key)
	s.Require().NoError(err)
	s.Equal(cached, e)
}

func (s *CacheSuite) TestOnlySentIsCached() {
	s.Run("sent is written through", func() {
		s.cache.EXPECT().Get(gomock.Any(), s.key).Return(nil, nil)
		s.reader.EXPECT().Get(gomock.Any(), s.key).Return(&models.Record{Key: s.key, Serial: "S", Status: models.DeliverySent}, nil)
		s.cache.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e *entitlement.Entitlement) error {
				s.Equal(s.key, e.Key)
				return nil
			})

		_, err := s.svc.Lookup(context.Background(), s.key)
		s.Require().NoError(err)
	})

	s.Run("pending and failed are not cached", func() {
		for _, status := range []models.DeliveryStatus{models.DeliveryPending, models.DeliveryFailed} {
			s.cache.EXPECT().Get(gomock.Any(), s.key).Return(nil, nil)
			s.reader.EXPECT().Get(gomock.Any(), s.key).Return(&models.Record{Key: s.key, Status: status}, nil)

			e, err := s.svc.Lookup(context.Background(), s.key)
			s.Require().NoError(err)
			s.Equal(status, e.DeliveryStatus)
		}
	})
}

func (s *CacheSuite) TestCacheErrorsFallBackToStore() {
	s.cache.EXPECT().Get(gomock.Any(), s.key).Return(nil, errors.New("redis: connection refused"))
	s.reader.EXPECT().Get(gomock.Any(), s.key).Return(&models.Record{Key: s.key, Serial: "S", Status: models.DeliverySent}, nil)
	s.cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("redis: connection refused"))

	e, err := s.svc.Lookup(context.Background(), s.key)
	s.Require().NoError(err)
	s.Equal("S", e.Serial)
}

func (s *CacheSuite) TestStoreErrorIsInternal() {
	s.cache.EXPECT().Get(gomock.Any(), s.key).Return(nil, nil)
	s.reader.EXPECT().Get(gomock.Any(), s.key).Return(nil, errors.New("timeout"))

	_, err := s.svc.Lookup(context.Background(), s.key)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(errors.Is(err, sentinel.ErrNotFound))
}

func (s *LookupSuite) TestPublicView() {
	full := &entitlement.Entitlement{
		Found:          true,
		Serial:         "ABCD-EFGH-IJKL-MNOP",
		PayerEmail:     "buyer@example.com",
		DeliveryStatus: models.DeliverySent,
	}

	s.Run("stripe keeps the serial and drops the email", func() {
		e := *full
		e.Provider, e.PaymentID = paymodels.ProviderStripe, "pi_1"
		pub := e.Public()
		s.Equal("ABCD-EFGH-IJKL-MNOP", pub.Serial)
		s.Empty(pub.PayerEmail)
		s.Equal("buyer@example.com", e.PayerEmail, "original is not modified")
	})

	s.Run("mercado pago masks the serial", func() {
		e := *full
		e.Provider, e.PaymentID = paymodels.ProviderMercadoPago, "1001"
		pub := e.Public()
		s.Equal("****-****-****-MNOP", pub.Serial)
		s.Empty(pub.PayerEmail)
		s.Equal(models.DeliverySent, pub.DeliveryStatus)
	})

	s.Run("mask edge cases", func() {
		s.Empty(entitlement.MaskSerial(""))
		s.Equal("****", entitlement.MaskSerial("ABCDEFGH"))
		s.Equal("****", entitlement.MaskSerial("ABCD-"))
	})

	s.Run("nil stays nil", func() {
		var e *entitlement.Entitlement
		s.Nil(e.Public())
	})
}
