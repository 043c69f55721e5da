package models

import (
	"fmt"
	"strings"
)

// Provider names a payment processor. Values are persisted; do not rename.
type Provider string

const (
	ProviderStripe      Provider = "stripe"
	ProviderMercadoPago Provider = "mercadopago"
)

// ParseProvider accepts a persisted or URL provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderStripe, ProviderMercadoPago:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payment provider %q", s)
	}
}

// Status is the provider-agnostic payment state.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusUnknown  Status = "unknown"
)

// Key is the global fulfillment idempotency key. It is never derived from the
// payer email: one buyer may purchase several times.
type Key struct {
	Provider  Provider
	PaymentID string
}

// NewKey builds a key, rejecting empty parts.
func NewKey(provider Provider, paymentID string) (Key, error) {
	paymentID = strings.TrimSpace(paymentID)
	if provider == "" || paymentID == "" {
		return Key{}, fmt.Errorf("idempotency key requires provider and payment id")
	}
	return Key{Provider: provider, PaymentID: paymentID}, nil
}

func (k Key) String() string {
	return string(k.Provider) + ":" + k.PaymentID
}

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool {
	return k.Provider == "" && k.PaymentID == ""
}

// PaymentOutcome is the canonical result of normalizing a provider event.
type PaymentOutcome struct {
	Provider          Provider
	ProviderPaymentID string
	Status            Status
	AmountMinorUnits  int64
	Currency          string

	// PayerEmail may be empty until the provider object is retrieved.
	PayerEmail string

	// RawMetadata is passed through untouched (e.g. PIX QR payloads).
	RawMetadata map[string]string
}

// Key returns the idempotency key of the outcome.
func (o PaymentOutcome) Key() Key {
	return Key{Provider: o.Provider, PaymentID: o.ProviderPaymentID}
}

// Approved reports whether the outcome may trigger fulfillment.
func (o PaymentOutcome) Approved() bool {
	return o.Status == StatusApproved
}

// Metadata keys placed in RawMetadata by the normalizers.
const (
	MetaQRCode         = "qr_code"
	MetaQRCodeBase64   = "qr_code_base64"
	MetaTicketURL      = "ticket_url"
	MetaStatusDetail   = "status_detail"
	MetaProviderStatus = "provider_status"
	MetaEventType      = "event_type"
	MetaSessionID      = "checkout_session_id"
	MetaPaymentMethod  = "payment_method"
)
