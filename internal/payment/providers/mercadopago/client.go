// Package mercadopago wraps the Mercado Pago Go SDK for payment retrieval,
// payment creation and Checkout Pro preferences.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"phasegarden/internal/payment/providers"
)

const (
	providerID     = "mercadopago"
	defaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 10 * time.Second
)

type paymentAPI interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
}

type preferenceAPI interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

// Client calls Mercado Pago with a fixed access token.
type Client struct {
	payments    paymentAPI
	preferences preferenceAPI
	timeout     time.Duration
}

type options struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*options)

// WithBaseURL sends every SDK request to u instead of api.mercadopago.com.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithTimeout bounds every call made by the client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New builds a client. Options are applied in order.
func New(accessToken string, opts ...Option) (*Client, error) {
	o := options{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if o.baseURL != "" && o.baseURL != defaultBaseURL {
		base, err := url.Parse(o.baseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("mercadopago base url %q must be absolute", o.baseURL)
		}
		next := hc.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		rewritten := *hc
		rewritten.Transport = baseURLTransport{base: base, next: next}
		hc = &rewritten
	}

	cfg, err := config.New(accessToken, config.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &Client{
		payments:    payment.NewClient(cfg),
		preferences: preference.NewClient(cfg),
		timeout:     o.timeout,
	}, nil
}

// GetPayment retrieves the authoritative payment object.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "payment id is required", nil)
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "payment id must be numeric", err)
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()
	resp, err := c.payments.Get(ctx, n)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return fromPaymentResponse(resp), nil
}

// CreatePayment submits a payment. The SDK attaches a fresh idempotency key
// to every create.
func (c *Client) CreatePayment(ctx context.Context, body CreatePaymentRequest) (*Payment, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	resp, err := c.payments.Create(ctx, body.sdkRequest())
	if err != nil {
		return nil, classify(ctx, err)
	}
	return fromPaymentResponse(resp), nil
}

// CreatePreference registers a Checkout Pro preference and returns the
// redirect the buyer follows.
func (c *Client) CreatePreference(ctx context.Context, body PreferenceRequest) (*Preference, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	resp, err := c.preferences.Create(ctx, body.sdkRequest())
	if err != nil {
		return nil, classify(ctx, err)
	}
	if resp.ID == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "preference has no id", nil)
	}
	return &Preference{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func classify(ctx context.Context, err error) error {
	var rerr *mperror.ResponseError
	if errors.As(err, &rerr) {
		pe := providers.NewProviderError(providers.CategoryForStatus(rerr.StatusCode), providerID,
			fmt.Sprintf("unexpected status %d: %s", rerr.StatusCode, strings.TrimSpace(rerr.Message)), err)
		pe.StatusCode = rerr.StatusCode
		return pe
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return providers.NewProviderError(providers.ErrorTimeout, providerID, "request timed out", err)
	}
	return providers.FromTransportError(providerID, err)
}

// baseURLTransport points the SDK's fixed API host at another server.
type baseURLTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t baseURLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.base.Scheme
	out.URL.Host = t.base.Host
	out.URL.Path = strings.TrimRight(t.base.Path, "/") + req.URL.Path
	out.Host = t.base.Host
	return t.next.RoundTrip(out)
}

func fromPaymentResponse(r *payment.Response) *Payment {
	p := &Payment{
		Status:            r.Status,
		StatusDetail:      r.StatusDetail,
		TransactionAmount: r.TransactionAmount,
		CurrencyID:        r.CurrencyID,
		PaymentMethodID:   r.PaymentMethodID,
		Payer:             Payer{Email: r.Payer.Email},
		Metadata:          r.Metadata,
	}
	if r.ID != 0 {
		p.ID = ID(strconv.Itoa(r.ID))
	}
	td := r.PointOfInteraction.TransactionData
	if td.QRCode != "" || td.QRCodeBase64 != "" || td.TicketURL != "" {
		p.PointOfInteraction = &PointOfInteraction{TransactionData: TransactionData{
			QRCode:       td.QRCode,
			QRCodeBase64: td.QRCodeBase64,
			TicketURL:    td.TicketURL,
		}}
	}
	return p
}

func (r CreatePaymentRequest) sdkRequest() payment.Request {
	req := payment.Request{
		TransactionAmount: r.TransactionAmount,
		Description:       r.Description,
		PaymentMethodID:   r.PaymentMethodID,
		Token:             r.Token,
		Installments:      r.Installments,
		IssuerID:          r.IssuerID,
		Metadata:          r.Metadata,
		Payer:             &payment.PayerRequest{Email: r.Payer.Email},
	}
	if id := r.Payer.Identification; id != nil {
		req.Payer.Identification = &payment.IdentificationRequest{Type: id.Type, Number: id.Number}
	}
	return req
}

func (r PreferenceRequest) sdkRequest() preference.Request {
	return preference.Request{
		Items: []preference.ItemRequest{{
			ID:          r.ItemID,
			Title:       r.Title,
			Description: r.Description,
			Quantity:    1,
			UnitPrice:   r.UnitPrice,
			CurrencyID:  r.CurrencyID,
		}},
		Payer: &preference.PayerRequest{Email: r.PayerEmail},
		BackURLs: &preference.BackURLsRequest{
			Success: r.SuccessURL,
			Failure: r.FailureURL,
			Pending: r.PendingURL,
		},
		NotificationURL: r.NotificationURL,
		Metadata:        r.Metadata,
	}
}
