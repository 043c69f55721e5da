package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"phasegarden/internal/fulfillment/models"
	paymodels "phasegarden/internal/payment/models"
	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/sentinel"
	"phasegarden/pkg/requestcontext"
)

// Fulfill issues and delivers a serial for an Approved outcome, at most once
// per payment identity. Outcomes in any other status are skipped without
// touching the store.
//
// A duplicate returns the stored serial. If the earlier attempt was aborted
// while Pending and its lease has lapsed, the duplicate resumes delivery with
// the stored serial.
//
// On delivery failure both a Result and an error wrapping ErrDeliveryFailed
// are returned.
func (s *Service) Fulfill(ctx context.Context, outcome paymodels.PaymentOutcome) (*Result, error) {
	ctx, span := tracer.Start(ctx, "fulfillment.Fulfill", trace.WithAttributes(
		attribute.String("payment.provider", string(outcome.Provider)),
		attribute.String("payment.id", outcome.ProviderPaymentID),
		attribute.String("payment.status", string(outcome.Status)),
	))
	defer span.End()

	if !outcome.Approved() {
		if s.metrics != nil {
			s.metrics.IncrementSkipped(string(outcome.Provider), string(outcome.Status))
		}
		s.logger.InfoContext(ctx, "payment not approved, fulfillment skipped",
			"provider", outcome.Provider,
			"payment_id", outcome.ProviderPaymentID,
			"status", outcome.Status,
			"request_id", requestcontext.RequestID(ctx),
		)
		return &Result{Key: outcome.Key(), Skipped: true}, nil
	}

	key, err := paymodels.NewKey(outcome.Provider, outcome.ProviderPaymentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "payment outcome has no identity")
	}

	if s.metrics != nil {
		defer s.metrics.ObserveFulfill(time.Now())
	}

	email := strings.TrimSpace(outcome.PayerEmail)
	claim, record, err := s.store.TryClaim(ctx, key, email, requestcontext.Now(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "claim failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim fulfillment")
	}
	if s.metrics != nil {
		s.metrics.IncrementClaim(string(key.Provider), claim.String())
	}
	span.SetAttributes(attribute.String("fulfillment.claim", claim.String()))

	if claim == models.AlreadyClaimed {
		return s.resumeDuplicate(ctx, record, email)
	}

	s.logger.InfoContext(ctx, "fulfillment claimed",
		"key", key.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	res, err := s.deliver(ctx, record, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
	}
	return res, err
}

func (s *Service) resumeDuplicate(ctx context.Context, record *models.Record, email string) (*Result, error) {
	now := requestcontext.Now(ctx)
	if record.Status != models.DeliveryPending || record.Leased(now) {
		res := resultFor(record)
		res.Duplicate = true
		s.logger.InfoContext(ctx, "fulfillment already claimed",
			"key", record.Key.String(),
			"delivery_status", record.Status,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.publish(ctx, models.EventDuplicateIgnored, record, "")
		return res, nil
	}

	leased, err := s.store.AcquireDelivery(ctx, record.Key, email, now, false)
	if errors.Is(err, sentinel.ErrConflict) {
		res := resultFor(record)
		res.Duplicate = true
		return res, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resume fulfillment")
	}

	s.logger.WarnContext(ctx, "resuming interrupted fulfillment",
		"key", record.Key.String(),
		"has_serial", leased.HasSerial(),
		"request_id", requestcontext.RequestID(ctx),
	)
	res, err := s.deliver(ctx, leased, "")
	if res != nil {
		res.Duplicate = true
	}
	return res, err
}

// deliver runs the send step for a record whose delivery lease the caller
// holds. A serial is generated only if the record has none.
func (s *Service) deliver(ctx context.Context, record *models.Record, operator string) (*Result, error) {
	if !record.HasSerial() {
		assigned, err := s.assignSerial(ctx, record.Key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return s.fail(ctx, record, fmt.Sprintf("serial allocation failed: %v", err), operator)
		}
		record = assigned
		s.publish(ctx, models.EventSerialIssued, record, operator)
	}

	if strings.TrimSpace(record.PayerEmail) == "" {
		return s.fail(ctx, record, reasonEmailMissing, operator)
	}

	msg, err := s.email.compose(record)
	if err != nil {
		return s.fail(ctx, record, fmt.Sprintf("compose email: %v", err), operator)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
	messageID, err := s.mailer.Send(sendCtx, msg)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			// Aborted by the caller. The record stays Pending and is resumed
			// by a later call or the sweeper once its lease lapses.
			s.logger.WarnContext(context.WithoutCancel(ctx), "fulfillment aborted before delivery",
				"key", record.Key.String(),
				"error", ctx.Err(),
			)
			return nil, ctx.Err()
		}
		return s.fail(ctx, record, fmt.Sprintf("email send failed: %v", err), operator)
	}

	sent, err := s.store.MarkSent(context.WithoutCancel(ctx), record.Key, requestcontext.Now(ctx))
	if err != nil {
		s.logger.ErrorContext(ctx, "email sent but delivery not recorded",
			"key", record.Key.String(),
			"message_id", messageID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record delivery")
	}

	if s.metrics != nil {
		s.metrics.IncrementDelivery(string(sent.Key.Provider), string(models.DeliverySent))
	}
	s.logger.InfoContext(ctx, "license delivered",
		"key", sent.Key.String(),
		"message_id", messageID,
		"attempts", sent.Attempts,
		"operator", operator,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.publish(ctx, models.EventDeliverySent, sent, operator)
	return resultFor(sent), nil
}

// fail marks the record Failed. The claim and any serial are kept.
func (s *Service) fail(ctx context.Context, record *models.Record, reason, operator string) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	failed, err := s.store.MarkFailed(ctx, record.Key, reason, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record delivery failure")
	}
	if s.metrics != nil {
		s.metrics.IncrementDelivery(string(failed.Key.Provider), string(models.DeliveryFailed))
	}
	s.logger.ErrorContext(ctx, "license delivery failed",
		"key", failed.Key.String(),
		"reason", reason,
		"has_serial", failed.HasSerial(),
		"attempts", failed.Attempts,
		"operator", operator,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.publish(ctx, models.EventDeliveryFailed, failed, operator)
	return resultFor(failed), fmt.Errorf("%w: %s", ErrDeliveryFailed, reason)
}

// assignSerial generates and stores a serial, regenerating on collision with
// an already issued one.
func (s *Service) assignSerial(ctx context.Context, key paymodels.Key) (*models.Record, error) {
	for attempt := 1; attempt <= maxSerialAttempts; attempt++ {
		sn, err := s.serials.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate serial: %w", err)
		}
		record, err := s.store.AssignSerial(ctx, key, sn.String(), requestcontext.Now(ctx))
		switch {
		case err == nil:
			return record, nil
		case errors.Is(err, sentinel.ErrConflict):
			if s.metrics != nil {
				s.metrics.IncrementSerialCollision()
			}
			s.logger.WarnContext(ctx, "serial collision, regenerating",
				"key", key.String(),
				"attempt", attempt,
			)
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return s.store.Get(ctx, key)
		default:
			return nil, fmt.Errorf("assign serial: %w", err)
		}
	}
	return nil, ErrSerialExhausted
}
