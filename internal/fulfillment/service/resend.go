package service

import (
	"context"
	"errors"
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

// ResendOptions controls an operator resend.
type ResendOptions struct {
	// Force resends a serial that was already delivered.
	Force bool
	// Email fills a missing payer address. A stored address is never replaced.
	Email string
}

// Resend re-runs delivery with the stored serial. It never claims and never
// replaces a serial. Sent records are refused unless Force is set.
func (s *Service) Resend(ctx context.Context, key paymodels.Key, opts ResendOptions) (*Result, error) {
	email := strings.TrimSpace(opts.Email)
	force := opts.Force
	ctx, span := tracer.Start(ctx, "fulfillment.Resend", trace.WithAttributes(
		attribute.String("payment.provider", string(key.Provider)),
		attribute.String("payment.id", key.PaymentID),
		attribute.Bool("resend.force", force),
		attribute.Bool("resend.email_supplied", email != ""),
	))
	defer span.End()

	operator := requestcontext.Operator(ctx)

	record, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "fulfillment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fulfillment")
	}
	if email != "" && record.PayerEmail != "" && !strings.EqualFold(record.PayerEmail, email) {
		return nil, dErrors.New(dErrors.CodeConflict, "payer email already set")
	}

	leased, err := s.store.AcquireDelivery(ctx, key, email, requestcontext.Now(ctx), force)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if record.Status == models.DeliverySent && !force {
				return nil, dErrors.New(dErrors.CodeConflict, "license already delivered; set force to send again")
			}
			return nil, dErrors.New(dErrors.CodeConflict, "delivery already in progress")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "fulfillment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lease delivery")
	}

	s.logger.InfoContext(ctx, "resending license",
		"key", key.String(),
		"previous_status", record.Status,
		"force", force,
		"email_supplied", email != "",
		"operator", operator,
		"request_id", requestcontext.RequestID(ctx),
	)
	res, err := s.deliver(ctx, leased, operator)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resend failed")
	}
	return res, err
}

// SweepPending resumes records left Pending by aborted requests. Failed
// records are terminal and left for operators. It returns how many records
// it attempted to deliver.
func (s *Service) SweepPending(ctx context.Context, olderThan time.Duration) (int, error) {
	now := requestcontext.Now(ctx)
	stale, err := s.store.ListStalePending(ctx, now.Add(-olderThan), s.sweepBatch)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending fulfillments")
	}

	resumed := 0
	for _, r := range stale {
		if ctx.Err() != nil {
			return resumed, ctx.Err()
		}
		leased, err := s.store.AcquireDelivery(ctx, r.Key, "", requestcontext.Now(ctx), false)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to lease stale fulfillment",
				"key", r.Key.String(),
				"error", err,
			)
			continue
		}
		resumed++
		if _, err := s.deliver(ctx, leased, ""); err != nil && !errors.Is(err, ErrDeliveryFailed) {
			s.logger.ErrorContext(ctx, "sweep delivery error",
				"key", r.Key.String(),
				"error", err,
			)
		}
	}
	if resumed > 0 {
		s.logger.InfoContext(ctx, "pending fulfillments swept",
			"resumed", resumed,
			"candidates", len(stale),
		)
	}
	return resumed, nil
}

// RunSweeper calls SweepPending every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval, olderThan time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepPending(ctx, olderThan); err != nil && ctx.Err() == nil {
				s.logger.ErrorContext(ctx, "pending sweep failed", "error", err)
			}
		}
	}
}
