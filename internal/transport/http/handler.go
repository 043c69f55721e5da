// Package httptransport exposes the payment webhooks, the buyer-facing
// entitlement reads and the operator endpoints. Handlers translate HTTP to
// service calls and hold no fulfillment logic.
package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v81"
	"golang.org/x/time/rate"

	"phasegarden/internal/entitlement"
	"phasegarden/internal/fulfillment/service"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/internal/payment/providers"
	"phasegarden/internal/payment/providers/mercadopago"
	"phasegarden/internal/payment/providers/stripeclient"
	"phasegarden/internal/platform/metrics"
	dErrors "phasegarden/pkg/domain-errors"
)

// maxWebhookBody matches the payload ceiling Stripe documents for events.
const maxWebhookBody = 64 << 10

const defaultSiteURL = "http://localhost:3000"

// Fulfiller is the orchestrator surface used by handlers.
type Fulfiller interface {
	Fulfill(ctx context.Context, outcome paymodels.PaymentOutcome) (*service.Result, error)
	Resend(ctx context.Context, key paymodels.Key, opts service.ResendOptions) (*service.Result, error)
}

// Entitlements answers point-in-time lookups.
type Entitlements interface {
	Lookup(ctx context.Context, key paymodels.Key) (*entitlement.Entitlement, error)
}

// StripeAPI verifies webhooks, starts checkouts and retrieves objects for the
// redirect pages.
type StripeAPI interface {
	VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error)
	CreatePaymentIntent(ctx context.Context, req stripeclient.IntentRequest) (*stripe.PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, req stripeclient.CheckoutRequest) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// MercadoPagoNotifications turns a webhook body into an outcome.
type MercadoPagoNotifications interface {
	FromMercadoPagoNotification(ctx context.Context, n mercadopago.Notification) (paymodels.PaymentOutcome, error)
}

// MercadoPagoPayments creates card and PIX payments and Checkout Pro
// preferences.
type MercadoPagoPayments interface {
	CreatePayment(ctx context.Context, req mercadopago.CreatePaymentRequest) (*mercadopago.Payment, error)
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

type Handler struct {
	fulfiller     Fulfiller
	entitlements  Entitlements
	stripe        StripeAPI
	mpNotify      MercadoPagoNotifications
	mpPayments    MercadoPagoPayments
	logger        *slog.Logger
	metrics       *metrics.Metrics
	validate      *validator.Validate
	lookupLimiter *rate.Limiter
	siteURL       string
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithStripe enables /api/webhook, /api/session and /api/payment-intent.
func WithStripe(api StripeAPI) Option {
	return func(h *Handler) {
		h.stripe = api
	}
}

// WithMercadoPago enables the Mercado Pago webhook and process-payment routes.
func WithMercadoPago(notifications MercadoPagoNotifications, payments MercadoPagoPayments) Option {
	return func(h *Handler) {
		h.mpNotify = notifications
		h.mpPayments = payments
	}
}

// WithSiteURL sets the storefront origin used for checkout return and
// notification URLs.
func WithSiteURL(u string) Option {
	return func(h *Handler) {
		h.siteURL = strings.TrimRight(u, "/")
	}
}

// WithLookupLimit bounds entitlement reads per process.
func WithLookupLimit(rps float64, burst int) Option {
	return func(h *Handler) {
		h.lookupLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func New(fulfiller Fulfiller, entitlements Entitlements, opts ...Option) (*Handler, error) {
	if fulfiller == nil {
		return nil, errors.New("fulfiller is required")
	}
	if entitlements == nil {
		return nil, errors.New("entitlement service is required")
	}
	h := &Handler{
		fulfiller:    fulfiller,
		entitlements: entitlements,
		logger:       slog.Default(),
		validate:     newValidator(),
		siteURL:      defaultSiteURL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts the public routes. Provider routes are mounted only when
// that provider is configured.
func (h *Handler) Register(r chi.Router) {
	if h.stripe != nil {
		r.Post("/api/webhook", h.HandleStripeWebhook)
		r.Post("/api/create-payment-intent", h.HandleCreatePaymentIntent)
		r.Post("/api/checkout", h.HandleCheckout)
		r.Get("/api/session", h.HandleSession)
		r.Get("/api/payment-intent", h.HandlePaymentIntent)
	}
	if h.mpNotify != nil {
		r.Post("/api/mercadopago/webhook", h.HandleMercadoPagoWebhook)
	}
	if h.mpPayments != nil {
		r.Post("/api/mercadopago/process-payment", h.HandleProcessPayment)
		r.Post("/api/mercadopago/create-preference", h.HandleCreatePreference)
	}
	r.Get("/api/entitlements/{provider}/{paymentID}", h.HandleEntitlement)
	r.Post("/api/track-download", h.HandleTrackDownload)
}

// RegisterAdmin mounts operator routes. The caller wraps r with operator
// authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/fulfillments/{provider}/{paymentID}", h.HandleFulfillment)
	r.Post("/admin/fulfillments/{provider}/{paymentID}/resend", h.HandleResend)
}

func (h *Handler) countWebhook(provider paymodels.Provider, result string) {
	if h.metrics != nil {
		h.metrics.IncrementWebhook(string(provider), result)
	}
}

// providerError maps a provider lookup failure for the redirect endpoints.
func providerError(err error, what string) error {
	switch providers.GetCategory(err) {
	case providers.ErrorNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, what+" not found")
	case providers.ErrorBadData, providers.ErrorRejected:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+what)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "payment provider unavailable")
	}
}

func pathKey(r *http.Request) (paymodels.Key, error) {
	provider, err := paymodels.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		return paymodels.Key{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown payment provider")
	}
	key, err := paymodels.NewKey(provider, chi.URLParam(r, "paymentID"))
	if err != nil {
		return paymodels.Key{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "payment id is required")
	}
	return key, nil
}
