package normalizer

//go:generate mockgen -source=mercadopago.go -destination=mocks/mocks.go -package=mocks PaymentFetcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/mock/gomock"

	"phasegarden/internal/payment/models"
	"phasegarden/internal/payment/normalizer/mocks"
	"phasegarden/internal/payment/providers"
	"phasegarden/internal/payment/providers/mercadopago"
)

type StripeNormalizerSuite struct {
	suite.Suite
}

func TestStripeNormalizerSuite(t *testing.T) {
	suite.Run(t, new(StripeNormalizerSuite))
}

func (s *StripeNormalizerSuite) TestFromCheckoutSession() {
	s.Run("paid session is approved and keyed by its payment intent", func() {
		out, err := FromCheckoutSession(&stripe.CheckoutSession{
			ID:              "cs_test_1",
			PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
			CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "buyer@example.com"},
			PaymentIntent:   &stripe.PaymentIntent{ID: "pi_123"},
			AmountTotal:     4900,
			Currency:        "usd",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, out.Status)
		s.Equal("pi_123", out.ProviderPaymentID)
		s.Equal("buyer@example.com", out.PayerEmail)
		s.Equal(int64(4900), out.AmountMinorUnits)
		s.Equal("USD", out.Currency)
		s.Equal("cs_test_1", out.RawMetadata[models.MetaSessionID])
	})

	s.Run("unpaid session is pending", func() {
		out, err := FromCheckoutSession(&stripe.CheckoutSession{
			ID:            "cs_test_2",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, out.Status)
		s.Equal("cs_test_2", out.ProviderPaymentID)
	})

	s.Run("email falls back to customer_email", func() {
		out, err := FromCheckoutSession(&stripe.CheckoutSession{
			ID:              "cs_test_3",
			PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
			CustomerDetails: &stripe.CheckoutSessionCustomerDetails{},
			CustomerEmail:   "fallback@example.com",
		})
		s.Require().NoError(err)
		s.Equal("fallback@example.com", out.PayerEmail)
	})

	s.Run("missing id is malformed", func() {
		_, err := FromCheckoutSession(&stripe.CheckoutSession{})
		s.ErrorIs(err, ErrMalformedEvent)

		_, err = FromCheckoutSession(nil)
		s.ErrorIs(err, ErrMalformedEvent)
	})
}

func (s *StripeNormalizerSuite) TestFromPaymentIntent() {
	s.Run("succeeded intent is approved", func() {
		out, err := FromPaymentIntent(&stripe.PaymentIntent{
			ID:             "pi_1",
			Status:         stripe.PaymentIntentStatusSucceeded,
			ReceiptEmail:   "buyer@example.com",
			AmountReceived: 4900,
			Currency:       "brl",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, out.Status)
		key, kerr := models.NewKey(models.ProviderStripe, "pi_1")
		s.Require().NoError(kerr)
		s.Equal(key, out.Key())
		s.Equal("buyer@example.com", out.PayerEmail)
		s.Equal("BRL", out.Currency)
	})

	s.Run("processing intent is pending", func() {
		out, err := FromPaymentIntent(&stripe.PaymentIntent{
			ID:     "pi_2",
			Status: stripe.PaymentIntentStatusProcessing,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, out.Status)
	})

	s.Run("email falls back to metadata", func() {
		out, err := FromPaymentIntent(&stripe.PaymentIntent{
			ID:       "pi_3",
			Status:   stripe.PaymentIntentStatusSucceeded,
			Metadata: map[string]string{"email": "meta@example.com"},
		})
		s.Require().NoError(err)
		s.Equal("meta@example.com", out.PayerEmail)
	})
}

func (s *StripeNormalizerSuite) TestFromStripeEvent() {
	event := func(eventType string, raw string) stripe.Event {
		return stripe.Event{
			ID:   "evt_1",
			Type: stripe.EventType(eventType),
			Data: &stripe.EventData{Raw: json.RawMessage(raw)},
		}
	}

	s.Run("payment_intent.succeeded is approved", func() {
		out, err := FromStripeEvent(event(EventPaymentIntentSucceeded,
			`{"id":"pi_77","object":"payment_intent","status":"succeeded","receipt_email":"buyer@example.com","amount":4900,"currency":"usd"}`))
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, out.Status)
		s.Equal("pi_77", out.ProviderPaymentID)
		s.Equal("buyer@example.com", out.PayerEmail)
		s.Equal(EventPaymentIntentSucceeded, out.RawMetadata[models.MetaEventType])
	})

	s.Run("checkout.session.completed converges on the intent key", func() {
		out, err := FromStripeEvent(event(EventCheckoutSessionCompleted,
			`{"id":"cs_9","object":"checkout.session","payment_status":"paid","payment_intent":"pi_77","customer_details":{"email":"buyer@example.com"}}`))
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, out.Status)
		s.Equal("pi_77", out.ProviderPaymentID)
	})

	s.Run("unrelated event is unknown", func() {
		out, err := FromStripeEvent(event("customer.created", `{"id":"cus_1","object":"customer"}`))
		s.Require().NoError(err)
		s.Equal(models.StatusUnknown, out.Status)
		s.False(out.Approved())
	})

	s.Run("payment event without id is malformed", func() {
		_, err := FromStripeEvent(event(EventPaymentIntentSucceeded, `{"object":"payment_intent","status":"succeeded"}`))
		s.ErrorIs(err, ErrMalformedEvent)
	})

	s.Run("payment event with undecodable data is malformed", func() {
		_, err := FromStripeEvent(event(EventPaymentIntentSucceeded, `[1,2,3]`))
		s.ErrorIs(err, ErrMalformedEvent)
	})

	s.Run("payment event without data is malformed", func() {
		_, err := FromStripeEvent(stripe.Event{ID: "evt_2", Type: EventCheckoutSessionCompleted})
		s.ErrorIs(err, ErrMalformedEvent)
	})
}

type MercadoPagoNormalizerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	payments *mocks.MockPaymentFetcher
	norm     *MercadoPago
}

func TestMercadoPagoNormalizerSuite(t *testing.T) {
	suite.Run(t, new(MercadoPagoNormalizerSuite))
}

func (s *MercadoPagoNormalizerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.payments = mocks.NewMockPaymentFetcher(s.ctrl)
	s.norm = NewMercadoPago(s.payments, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *MercadoPagoNormalizerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func notification(notificationType, id string) mercadopago.Notification {
	var n mercadopago.Notification
	n.Type = notificationType
	n.Data.ID = mercadopago.ID(id)
	return n
}

func (s *MercadoPagoNormalizerSuite) TestFromMercadoPagoNotification() {
	ctx := context.Background()

	s.Run("non-payment notification never calls the provider", func() {
		// No EXPECT: any GetPayment call fails the test.
		out, err := s.norm.FromMercadoPagoNotification(ctx, notification("merchant_order", "123"))
		s.Require().NoError(err)
		s.Equal(models.StatusUnknown, out.Status)
	})

	s.Run("payment notification without id is malformed", func() {
		_, err := s.norm.FromMercadoPagoNotification(ctx, notification(NotificationTypePayment, "  "))
		s.ErrorIs(err, ErrMalformedEvent)
	})

	s.Run("approved payment is fetched and mapped", func() {
		s.payments.EXPECT().GetPayment(gomock.Any(), "9876").Return(&mercadopago.Payment{
			ID:                "9876",
			Status:            "approved",
			StatusDetail:      "accredited",
			TransactionAmount: 149.9,
			CurrencyID:        "BRL",
			Payer:             mercadopago.Payer{Email: "payer@example.com"},
			Metadata:          map[string]any{"customer_email": "buyer@example.com"},
		}, nil)

		out, err := s.norm.FromMercadoPagoNotification(ctx, notification(NotificationTypePayment, "9876"))
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, out.Status)
		s.Equal("9876", out.ProviderPaymentID)
		s.Equal("buyer@example.com", out.PayerEmail)
		s.Equal(int64(14990), out.AmountMinorUnits)
		s.Equal("accredited", out.RawMetadata[models.MetaStatusDetail])
	})

	s.Run("lookup failure is provider unavailable", func() {
		timeout := providers.NewProviderError(providers.ErrorTimeout, "mercadopago", "request timed out", context.DeadlineExceeded)
		s.payments.EXPECT().GetPayment(gomock.Any(), "555").Return(nil, timeout)

		out, err := s.norm.FromMercadoPagoNotification(ctx, notification(NotificationTypePayment, "555"))
		s.ErrorIs(err, ErrProviderUnavailable)
		s.NotEqual(models.StatusRejected, out.Status)
		s.True(providers.IsRetryable(err))
	})

	s.Run("not found is still provider unavailable", func() {
		s.payments.EXPECT().GetPayment(gomock.Any(), "404").
			Return(nil, providers.NewProviderError(providers.ErrorNotFound, "mercadopago", "unexpected status 404", nil))

		_, err := s.norm.FromMercadoPagoNotification(ctx, notification(NotificationTypePayment, "404"))
		s.ErrorIs(err, ErrProviderUnavailable)
		s.False(errors.Is(err, ErrMalformedEvent))
	})
}

func (s *MercadoPagoNormalizerSuite) TestFromMercadoPagoPayment() {
	s.Run("status mapping", func() {
		cases := map[string]models.Status{
			"approved":     models.StatusApproved,
			"pending":      models.StatusPending,
			"rejected":     models.StatusRejected,
			"in_process":   models.StatusUnknown,
			"authorized":   models.StatusUnknown,
			"cancelled":    models.StatusUnknown,
			"refunded":     models.StatusUnknown,
			"":             models.StatusUnknown,
			"charged_back": models.StatusUnknown,
		}
		for status, want := range cases {
			out, err := FromMercadoPagoPayment(&mercadopago.Payment{ID: "1", Status: status})
			s.Require().NoError(err)
			s.Equal(want, out.Status, "status %q", status)
			s.Equal(status, out.RawMetadata[models.MetaProviderStatus])
		}
	})

	s.Run("email falls back to payer", func() {
		out, err := FromMercadoPagoPayment(&mercadopago.Payment{
			ID:     "2",
			Status: "approved",
			Payer:  mercadopago.Payer{Email: "payer@example.com"},
		})
		s.Require().NoError(err)
		s.Equal("payer@example.com", out.PayerEmail)
	})

	s.Run("pix data passes through", func() {
		out, err := FromMercadoPagoPayment(&mercadopago.Payment{
			ID:              "3",
			Status:          "pending",
			PaymentMethodID: "pix",
			PointOfInteraction: &mercadopago.PointOfInteraction{
				TransactionData: mercadopago.TransactionData{
					QRCode:       "00020126",
					QRCodeBase64: "iVBORw0KGgo=",
					TicketURL:    "https://mercadopago.example/ticket/3",
				},
			},
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, out.Status)
		s.Equal("00020126", out.RawMetadata[models.MetaQRCode])
		s.Equal("iVBORw0KGgo=", out.RawMetadata[models.MetaQRCodeBase64])
		s.Equal("https://mercadopago.example/ticket/3", out.RawMetadata[models.MetaTicketURL])
		s.Equal("pix", out.RawMetadata[models.MetaPaymentMethod])
	})

	s.Run("missing id is malformed", func() {
		_, err := FromMercadoPagoPayment(&mercadopago.Payment{Status: "approved"})
		s.ErrorIs(err, ErrMalformedEvent)
	})
}
