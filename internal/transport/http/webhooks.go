package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"phasegarden/internal/fulfillment/service"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/internal/payment/normalizer"
	"phasegarden/internal/payment/providers/mercadopago"
	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/httputil"
	"phasegarden/pkg/requestcontext"
)

// Webhook results recorded on phasegarden_webhooks_total.
const (
	resultRejected    = "signature_rejected"
	resultMalformed   = "malformed"
	resultUnavailable = "provider_unavailable"
	resultIgnored     = "ignored"
	resultFulfilled   = "fulfilled"
	resultDuplicate   = "duplicate"
	resultFailed      = "delivery_failed"
	resultError       = "error"
)

// HandleStripeWebhook handles POST /api/webhook. The signature is checked on
// the raw body before anything is parsed.
func (h *Handler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable webhook body"))
		return
	}

	event, err := h.stripe.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.countWebhook(paymodels.ProviderStripe, resultRejected)
		h.logger.WarnContext(ctx, "stripe webhook signature rejected",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid webhook signature"))
		return
	}

	outcome, err := normalizer.FromStripeEvent(event)
	if err != nil {
		h.countWebhook(paymodels.ProviderStripe, resultMalformed)
		h.logger.ErrorContext(ctx, "stripe webhook malformed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
			"request_id", requestID,
		)
		render.JSON(w, r, WebhookResponse{Received: true})
		return
	}

	h.fulfillFromWebhook(ctx, w, r, outcome)
}

// HandleMercadoPagoWebhook handles POST /api/mercadopago/webhook. The body
// only names the payment; the normalizer fetches it.
func (h *Handler) HandleMercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var notification mercadopago.Notification
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&notification); err != nil {
		h.countWebhook(paymodels.ProviderMercadoPago, resultMalformed)
		h.logger.ErrorContext(ctx, "mercado pago webhook body malformed",
			"error", err,
			"request_id", requestID,
		)
		render.JSON(w, r, WebhookResponse{Received: true})
		return
	}

	outcome, err := h.mpNotify.FromMercadoPagoNotification(ctx, notification)
	switch {
	case errors.Is(err, normalizer.ErrProviderUnavailable):
		h.countWebhook(paymodels.ProviderMercadoPago, resultUnavailable)
		h.logger.WarnContext(ctx, "mercado pago lookup failed, asking for retry",
			"payment_id", notification.Data.ID.String(),
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment provider unavailable"))
		return
	case err != nil:
		h.countWebhook(paymodels.ProviderMercadoPago, resultMalformed)
		h.logger.ErrorContext(ctx, "mercado pago webhook malformed",
			"type", notification.Type,
			"error", err,
			"request_id", requestID,
		)
		render.JSON(w, r, WebhookResponse{Received: true})
		return
	}

	h.fulfillFromWebhook(ctx, w, r, outcome)
}

// fulfillFromWebhook acknowledges everything except internal failures, which
// the provider should retry. A failed delivery is acknowledged: the claim and
// serial stand and operators resend.
func (h *Handler) fulfillFromWebhook(ctx context.Context, w http.ResponseWriter, r *http.Request, outcome paymodels.PaymentOutcome) {
	requestID := requestcontext.RequestID(ctx)

	res, err := h.fulfiller.Fulfill(ctx, outcome)
	switch {
	case errors.Is(err, service.ErrDeliveryFailed):
		h.countWebhook(outcome.Provider, resultFailed)
		h.logger.ErrorContext(ctx, "webhook fulfilled but delivery failed",
			"provider", outcome.Provider,
			"payment_id", outcome.ProviderPaymentID,
			"error", err,
			"request_id", requestID,
		)
		render.JSON(w, r, WebhookResponse{Received: true, Status: string(outcome.Status)})
		return
	case err != nil:
		h.countWebhook(outcome.Provider, resultError)
		h.logger.ErrorContext(ctx, "webhook fulfillment error",
			"provider", outcome.Provider,
			"payment_id", outcome.ProviderPaymentID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	switch {
	case res.Skipped:
		h.countWebhook(outcome.Provider, resultIgnored)
	case res.Duplicate:
		h.countWebhook(outcome.Provider, resultDuplicate)
	default:
		h.countWebhook(outcome.Provider, resultFulfilled)
	}
	render.JSON(w, r, WebhookResponse{Received: true, Status: string(outcome.Status)})
}
