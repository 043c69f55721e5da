// Package stripeclient wraps stripe-go for webhook verification, checkout
// creation and the retrievals the confirmation endpoints need.
package stripeclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"phasegarden/internal/payment/providers"
)

const providerID = "stripe"

// ErrSignatureInvalid is returned for webhook payloads whose Stripe-Signature
// header is missing, stale or does not match the endpoint secret.
var ErrSignatureInvalid = errors.New("stripe signature invalid")

type Client struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

type config struct {
	httpClient *http.Client
	baseURL    string
	retries    int64
	tolerance  time.Duration
}

type Option func(*config)

// WithHTTPClient sets the client used for API calls, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithBaseURL points the API backend somewhere other than api.stripe.com.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithMaxNetworkRetries(n int64) Option {
	return func(c *config) {
		c.retries = n
	}
}

// WithTolerance bounds the accepted age of a signed webhook.
func WithTolerance(d time.Duration) Option {
	return func(c *config) {
		c.tolerance = d
	}
}

func New(secretKey, webhookSecret string, opts ...Option) *Client {
	cfg := config{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retries:    2,
		tolerance:  webhook.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.httpClient,
		MaxNetworkRetries: stripe.Int64(cfg.retries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.baseURL != "" {
		backendCfg.URL = stripe.String(cfg.baseURL)
	}

	return &Client{
		api:           client.New(secretKey, stripe.NewBackendsWithConfig(backendCfg)),
		webhookSecret: webhookSecret,
		tolerance:     cfg.tolerance,
	}
}

// VerifyEvent checks the signature header and decodes the event. Nothing may
// be normalized from a payload that fails here.
func (c *Client) VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	if strings.TrimSpace(signatureHeader) == "" {
		return stripe.Event{}, fmt.Errorf("%w: missing header", ErrSignatureInvalid)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                c.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	return event, nil
}

// GetCheckoutSession retrieves a session with its payment intent expanded.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "session id is required", nil)
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	cs, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, classify(err)
	}
	return cs, nil
}

// GetPaymentIntent retrieves a payment intent by id.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "payment intent id is required", nil)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, classify(err)
	}
	return pi, nil
}

// Product is the single line item a buyer pays for. Amount is in the
// currency's minor unit.
type Product struct {
	Name        string
	Description string
	Amount      int64
	Currency    string
}

// IntentRequest starts an embedded card payment.
type IntentRequest struct {
	Product Product
	Email   string
}

// CheckoutRequest starts a hosted checkout. SuccessURL may carry Stripe's
// {CHECKOUT_SESSION_ID} placeholder.
type CheckoutRequest struct {
	Product    Product
	Email      string
	SuccessURL string
	CancelURL  string
}

// CreatePaymentIntent creates an intent whose receipt email and metadata name
// the buyer, so the succeeded webhook can fulfill without a second lookup.
func (c *Client) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*stripe.PaymentIntent, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "email is required", nil)
	}
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.Product.Amount),
		Currency:     stripe.String(req.Product.Currency),
		ReceiptEmail: stripe.String(req.Email),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("always"),
		},
	}
	params.Context = ctx
	params.AddMetadata("product", req.Product.Name)
	params.AddMetadata("email", req.Email)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return pi, nil
}

// CreateCheckoutSession creates a card-only hosted checkout for one unit of
// the product. The intent it spawns carries the buyer email too.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*stripe.CheckoutSession, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "email is required", nil)
	}
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Product.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.Product.Name),
					Description: stripe.String(req.Product.Description),
				},
				UnitAmount: stripe.Int64(req.Product.Amount),
			},
			Quantity: stripe.Int64(1),
		}},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		CustomerEmail: stripe.String(req.Email),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ReceiptEmail: stripe.String(req.Email),
			Metadata:     map[string]string{"product": req.Product.Name, "email": req.Email},
		},
	}
	params.Context = ctx
	params.AddMetadata("product", req.Product.Name)

	cs, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return cs, nil
}

func classify(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.HTTPStatusCode != 0 {
		pe := providers.NewProviderError(providers.CategoryForStatus(serr.HTTPStatusCode), providerID, serr.Msg, err)
		pe.StatusCode = serr.HTTPStatusCode
		return pe
	}
	return providers.FromTransportError(providerID, err)
}
