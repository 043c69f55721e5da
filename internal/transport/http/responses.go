package httptransport

import (
	"phasegarden/internal/entitlement"
	"phasegarden/internal/fulfillment/models"
	"phasegarden/internal/fulfillment/service"
)

// WebhookResponse acknowledges a provider notification.
type WebhookResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
}

// RedirectStatusResponse is polled by the success page after checkout.
type RedirectStatusResponse struct {
	CustomerEmail  string                `json:"customerEmail,omitempty"`
	SerialNumber   *string               `json:"serialNumber"`
	PaymentStatus  string                `json:"paymentStatus"`
	DeliveryStatus models.DeliveryStatus `json:"deliveryStatus,omitempty"`
	Hint           string                `json:"hint,omitempty"`
}

func redirectStatus(paymentStatus, email string, e *entitlement.Entitlement) RedirectStatusResponse {
	resp := RedirectStatusResponse{CustomerEmail: email, PaymentStatus: paymentStatus}
	if e == nil || !e.Found {
		return resp
	}
	if resp.CustomerEmail == "" {
		resp.CustomerEmail = e.PayerEmail
	}
	if e.Serial != "" {
		serial := e.Serial
		resp.SerialNumber = &serial
	}
	resp.DeliveryStatus = e.DeliveryStatus
	resp.Hint = e.Hint
	return resp
}

// ProcessPaymentResponse mirrors what the payment brick expects back.
type ProcessPaymentResponse struct {
	Status       string `json:"status"`
	StatusDetail string `json:"status_detail,omitempty"`
	ID           string `json:"id"`
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// PaymentIntentResponse hands the client secret to Stripe Elements.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CheckoutSessionResponse names the hosted checkout to redirect to.
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
}

// ResendResponse reports an operator resend.
type ResendResponse struct {
	Provider       string                `json:"provider"`
	PaymentID      string                `json:"paymentId"`
	SerialNumber   string                `json:"serialNumber,omitempty"`
	DeliveryStatus models.DeliveryStatus `json:"deliveryStatus"`
}

func resendResponse(res *service.Result) ResendResponse {
	return ResendResponse{
		Provider:       string(res.Key.Provider),
		PaymentID:      res.Key.PaymentID,
		SerialNumber:   res.Serial,
		DeliveryStatus: res.Status,
	}
}
