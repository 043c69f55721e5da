// Package service runs the fulfillment state machine:
// Unclaimed → Claimed(Pending) → Sent | Failed.
//
// The store's conditional writes decide every race. The service itself holds
// no cross-request state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"phasegarden/internal/fulfillment/metrics"
	"phasegarden/internal/fulfillment/models"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/pkg/serial"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	TryClaim(ctx context.Context, key paymodels.Key, email string, now time.Time) (models.ClaimResult, *models.Record, error)
	Get(ctx context.Context, key paymodels.Key) (*models.Record, error)
	AcquireDelivery(ctx context.Context, key paymodels.Key, email string, now time.Time, includeSent bool) (*models.Record, error)
	AssignSerial(ctx context.Context, key paymodels.Key, serial string, now time.Time) (*models.Record, error)
	MarkSent(ctx context.Context, key paymodels.Key, now time.Time) (*models.Record, error)
	MarkFailed(ctx context.Context, key paymodels.Key, reason string, now time.Time) (*models.Record, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]*models.Record, error)
}

// Mailer sends one composed email and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg models.Email) (string, error)
}

// EventPublisher receives lifecycle events. Publish failures are logged and
// never change the fulfillment outcome.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

type SerialGenerator interface {
	Generate() (serial.Serial, error)
}

var (
	// ErrDeliveryFailed means the claim and serial stand but the email was
	// not confirmed sent. Operators resend with the stored serial.
	ErrDeliveryFailed = errors.New("license delivery failed")

	// ErrSerialExhausted means every generated serial collided.
	ErrSerialExhausted = errors.New("serial allocation exhausted")
)

const (
	maxSerialAttempts   = 5
	defaultEmailTimeout = 10 * time.Second
	defaultSweepBatch   = 50

	reasonEmailMissing = "payer email missing"
)

var tracer = otel.Tracer("phasegarden/fulfillment")

// Result is what callers learn about a fulfillment.
type Result struct {
	Key    paymodels.Key
	Serial string
	Status models.DeliveryStatus

	// Skipped is set for outcomes that are not Approved. Nothing was stored.
	Skipped bool

	// Duplicate is set when the key had already been claimed.
	Duplicate bool
}

func resultFor(record *models.Record) *Result {
	return &Result{Key: record.Key, Serial: record.Serial, Status: record.Status}
}

type Service struct {
	store        Store
	mailer       Mailer
	email        EmailConfig
	publisher    EventPublisher
	serials      SerialGenerator
	metrics      *metrics.Metrics
	logger       *slog.Logger
	emailTimeout time.Duration
	sweepBatch   int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithSerialGenerator(g SerialGenerator) Option {
	return func(s *Service) {
		s.serials = g
	}
}

// WithEmailTimeout bounds each send call.
func WithEmailTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.emailTimeout = d
		}
	}
}

// WithSweepBatch bounds how many stale records one sweep resumes.
func WithSweepBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

func New(store Store, mailer Mailer, email EmailConfig, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("fulfillment store is required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if err := email.validate(); err != nil {
		return nil, err
	}
	svc := &Service{
		store:        store,
		mailer:       mailer,
		email:        email,
		serials:      serial.NewCodec(),
		logger:       slog.Default(),
		emailTimeout: defaultEmailTimeout,
		sweepBatch:   defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) publish(ctx context.Context, eventType models.EventType, record *models.Record, operator string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, models.Event{
		Type:      eventType,
		Provider:  string(record.Key.Provider),
		PaymentID: record.Key.PaymentID,
		Status:    record.Status,
		Attempts:  record.Attempts,
		Reason:    record.LastError,
		Operator:  operator,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish fulfillment event",
			"event_type", eventType,
			"key", record.Key.String(),
			"error", err,
		)
	}
}
