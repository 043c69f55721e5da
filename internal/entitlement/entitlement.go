// Package entitlement answers "does this payment have a serial yet?" for the
// success page and support tooling. Reads never write fulfillment state.
package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"phasegarden/internal/fulfillment/models"
	paymodels "phasegarden/internal/payment/models"
	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/sentinel"
	"phasegarden/pkg/requestcontext"
)

// HintDeliveryFailed is the only detail exposed for a Failed delivery.
const HintDeliveryFailed = "We could not confirm delivery of your license email. Check your inbox and spam folder, or contact support."

// Entitlement is the buyer-facing view of a fulfillment.
type Entitlement struct {
	Key            paymodels.Key         `json:"-"`
	Provider       paymodels.Provider    `json:"provider"`
	PaymentID      string                `json:"paymentId"`
	Found          bool                  `json:"found"`
	Serial         string                `json:"serialNumber,omitempty"`
	PayerEmail     string                `json:"customerEmail,omitempty"`
	DeliveryStatus models.DeliveryStatus `json:"deliveryStatus,omitempty"`
	Hint           string                `json:"hint,omitempty"`
	FulfilledAt    *time.Time            `json:"fulfilledAt,omitempty"`
}

// Public is the view served without authentication. The payer email never
// leaves through it. Mercado Pago payment ids are sequential and easy to
// enumerate, so their serials are masked; Stripe ids carried by the buyer's
// redirect are unguessable and keep the full serial.
func (e *Entitlement) Public() *Entitlement {
	if e == nil {
		return nil
	}
	out := *e
	out.PayerEmail = ""
	if out.Provider == paymodels.ProviderMercadoPago {
		out.Serial = MaskSerial(out.Serial)
	}
	return &out
}

// MaskSerial keeps only the last group of a formatted serial.
func MaskSerial(s string) string {
	if s == "" {
		return ""
	}
	i := strings.LastIndexByte(s, '-')
	if i < 0 || i == len(s)-1 {
		return "****"
	}
	return "****-****-****" + s[i:]
}

// Terminal reports whether polling can stop.
func (e *Entitlement) Terminal() bool {
	if e == nil || !e.Found {
		return false
	}
	return e.DeliveryStatus == models.DeliverySent || e.DeliveryStatus == models.DeliveryFailed
}

// Reader is the read side of the fulfillment store.
type Reader interface {
	Get(ctx context.Context, key paymodels.Key) (*models.Record, error)
}

// Cache holds Sent entitlements. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, key paymodels.Key) (*Entitlement, error)
	Set(ctx context.Context, e *Entitlement) error
}

type Service struct {
	reader Reader
	cache  Cache
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache enables read-through caching of Sent entitlements.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(reader Reader, opts ...Option) (*Service, error) {
	if reader == nil {
		return nil, errors.New("fulfillment reader is required")
	}
	svc := &Service{reader: reader, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Lookup returns the current entitlement for key. An unknown key is
// Found=false, not an error.
func (s *Service) Lookup(ctx context.Context, key paymodels.Key) (*Entitlement, error) {
	if key.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider and payment id are required")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "entitlement cache read failed",
				"key", key.String(),
				"error", err,
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	record, err := s.reader.Get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &Entitlement{Key: key, Provider: key.Provider, PaymentID: key.PaymentID}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read fulfillment")
	}

	e := FromRecord(record)
	if s.cache != nil && e.DeliveryStatus == models.DeliverySent {
		if err := s.cache.Set(ctx, e); err != nil {
			s.logger.WarnContext(ctx, "entitlement cache write failed",
				"key", key.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return e, nil
}

// FromRecord maps a stored fulfillment to its public view. LastError never
// leaves the backend.
func FromRecord(r *models.Record) *Entitlement {
	e := &Entitlement{
		Key:            r.Key,
		Provider:       r.Key.Provider,
		PaymentID:      r.Key.PaymentID,
		Found:          true,
		Serial:         r.Serial,
		PayerEmail:     r.PayerEmail,
		DeliveryStatus: r.Status,
		FulfilledAt:    r.FulfilledAt,
	}
	if r.Status == models.DeliveryFailed {
		e.Hint = HintDeliveryFailed
	}
	return e
}
