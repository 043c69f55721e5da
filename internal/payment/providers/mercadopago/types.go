package mercadopago

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a Mercado Pago object id. The API sends numbers for payments and
// strings in webhook notifications; both decode here.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("mercadopago id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("mercadopago id %s is not an integer", n)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Payment is the subset of the /v1/payments resource the backend reads.
type Payment struct {
	ID                 ID                  `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	TransactionAmount  float64             `json:"transaction_amount"`
	CurrencyID         string              `json:"currency_id"`
	PaymentMethodID    string              `json:"payment_method_id"`
	Payer              Payer               `json:"payer"`
	Metadata           map[string]any      `json:"metadata"`
	PointOfInteraction *PointOfInteraction `json:"point_of_interaction,omitempty"`
}

// MetadataString returns a metadata value rendered as a string.
func (p Payment) MetadataString(key string) string {
	v, ok := p.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type Payer struct {
	Email          string          `json:"email,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type PointOfInteraction struct {
	TransactionData TransactionData `json:"transaction_data"`
}

// TransactionData carries the PIX QR payload for asynchronous payments.
type TransactionData struct {
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// CreatePaymentRequest describes a card or PIX payment.
type CreatePaymentRequest struct {
	TransactionAmount float64        `json:"transaction_amount"`
	Description       string         `json:"description"`
	PaymentMethodID   string         `json:"payment_method_id"`
	Token             string         `json:"token,omitempty"`
	Installments      int            `json:"installments,omitempty"`
	IssuerID          string         `json:"issuer_id,omitempty"`
	Payer             Payer          `json:"payer"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// PreferenceRequest is a Checkout Pro preference for a single license.
type PreferenceRequest struct {
	ItemID          string
	Title           string
	Description     string
	UnitPrice       float64
	CurrencyID      string
	PayerEmail      string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
	Metadata        map[string]any
}

// Preference is the created preference and its hosted checkout link.
type Preference struct {
	ID        string `json:"preference_id"`
	InitPoint string `json:"init_point"`
}

// Notification is the webhook body. It only points at the object to re-fetch.
type Notification struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Data   struct {
		ID ID `json:"id"`
	} `json:"data"`
}
