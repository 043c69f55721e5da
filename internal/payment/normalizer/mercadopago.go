package normalizer

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"phasegarden/internal/payment/models"
	"phasegarden/internal/payment/providers/mercadopago"
	"phasegarden/pkg/requestcontext"
)

// NotificationTypePayment is the only Mercado Pago notification type that
// can lead to fulfillment.
const NotificationTypePayment = "payment"

// PaymentFetcher retrieves the authoritative payment object by id.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
}

// MercadoPago normalizes Mercado Pago webhook notifications. Notifications
// only point at a payment, so the payment is always re-fetched.
type MercadoPago struct {
	payments PaymentFetcher
	logger   *slog.Logger
}

type Option func(*MercadoPago)

func WithLogger(logger *slog.Logger) Option {
	return func(m *MercadoPago) {
		m.logger = logger
	}
}

func NewMercadoPago(payments PaymentFetcher, opts ...Option) *MercadoPago {
	m := &MercadoPago{payments: payments, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FromMercadoPagoNotification maps a webhook notification. Non-payment
// notifications return Unknown without contacting the provider.
func (m *MercadoPago) FromMercadoPagoNotification(ctx context.Context, n mercadopago.Notification) (models.PaymentOutcome, error) {
	if n.Type != NotificationTypePayment {
		return models.PaymentOutcome{
			Provider:    models.ProviderMercadoPago,
			Status:      models.StatusUnknown,
			RawMetadata: map[string]string{models.MetaEventType: n.Type},
		}, nil
	}

	id := strings.TrimSpace(n.Data.ID.String())
	if id == "" {
		return models.PaymentOutcome{}, malformed("payment notification without data.id")
	}

	payment, err := m.payments.GetPayment(ctx, id)
	if err != nil {
		m.logger.WarnContext(ctx, "mercadopago payment lookup failed",
			"payment_id", id,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.PaymentOutcome{}, unavailable(err)
	}

	out, err := FromMercadoPagoPayment(payment)
	if err != nil {
		return models.PaymentOutcome{}, err
	}
	if n.Action != "" {
		out.RawMetadata[models.MetaEventType] = n.Action
	}
	return out, nil
}

// FromMercadoPagoPayment maps a payment object. PIX QR data rides along in
// RawMetadata for the checkout page.
func FromMercadoPagoPayment(p *mercadopago.Payment) (models.PaymentOutcome, error) {
	if p == nil || strings.TrimSpace(p.ID.String()) == "" {
		return models.PaymentOutcome{}, malformed("mercadopago payment without id")
	}

	email := p.MetadataString("customer_email")
	if email == "" {
		email = p.Payer.Email
	}

	meta := map[string]string{
		models.MetaProviderStatus: p.Status,
	}
	if p.StatusDetail != "" {
		meta[models.MetaStatusDetail] = p.StatusDetail
	}
	if p.PaymentMethodID != "" {
		meta[models.MetaPaymentMethod] = p.PaymentMethodID
	}
	if poi := p.PointOfInteraction; poi != nil {
		td := poi.TransactionData
		if td.QRCode != "" {
			meta[models.MetaQRCode] = td.QRCode
		}
		if td.QRCodeBase64 != "" {
			meta[models.MetaQRCodeBase64] = td.QRCodeBase64
		}
		if td.TicketURL != "" {
			meta[models.MetaTicketURL] = td.TicketURL
		}
	}

	return models.PaymentOutcome{
		Provider:          models.ProviderMercadoPago,
		ProviderPaymentID: p.ID.String(),
		Status:            mercadoPagoStatus(p.Status),
		AmountMinorUnits:  int64(math.Round(p.TransactionAmount * 100)),
		Currency:          strings.ToUpper(p.CurrencyID),
		PayerEmail:        strings.TrimSpace(email),
		RawMetadata:       meta,
	}, nil
}

// mercadoPagoStatus maps only the three statuses the fulfillment flow acts on.
// Others (in_process, authorized, cancelled, refunded...) are Unknown and keep
// their raw value under MetaProviderStatus.
func mercadoPagoStatus(s string) models.Status {
	switch s {
	case "approved":
		return models.StatusApproved
	case "pending":
		return models.StatusPending
	case "rejected":
		return models.StatusRejected
	default:
		return models.StatusUnknown
	}
}
