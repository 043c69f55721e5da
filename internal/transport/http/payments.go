package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"phasegarden/internal/fulfillment/service"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/internal/payment/normalizer"
	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/httputil"
	"phasegarden/pkg/requestcontext"
)

// HandleSession handles GET /api/session?session_id=. A paid session that the
// webhook has not reached yet is fulfilled here through the same claim, so
// whichever arrives first issues the serial.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing session_id"))
		return
	}

	session, err := h.stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "checkout session lookup failed",
			"session_id", sessionID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, providerError(err, "checkout session"))
		return
	}

	outcome, err := normalizer.FromCheckoutSession(session)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "checkout session is incomplete"))
		return
	}

	if outcome.Approved() {
		if _, err := h.fulfiller.Fulfill(ctx, outcome); err != nil && !errors.Is(err, service.ErrDeliveryFailed) {
			h.logger.ErrorContext(ctx, "session confirmation fulfillment failed",
				"key", outcome.Key().String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
	}

	e, err := h.entitlements.Lookup(ctx, outcome.Key())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	render.JSON(w, r, redirectStatus(string(session.PaymentStatus), outcome.PayerEmail, e))
}

// HandlePaymentIntent handles GET /api/payment-intent?payment_intent=. It
// only reads; the payment_intent.succeeded webhook fulfills.
func (h *Handler) HandlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	intentID := strings.TrimSpace(r.URL.Query().Get("payment_intent"))
	if intentID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing payment_intent"))
		return
	}

	intent, err := h.stripe.GetPaymentIntent(ctx, intentID)
	if err != nil {
		h.logger.WarnContext(ctx, "payment intent lookup failed",
			"payment_intent", intentID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, providerError(err, "payment intent"))
		return
	}

	email := intent.ReceiptEmail
	if email == "" {
		email = intent.Metadata["email"]
	}

	e, err := h.entitlements.Lookup(ctx, paymodels.Key{Provider: paymodels.ProviderStripe, PaymentID: intent.ID})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	render.JSON(w, r, redirectStatus(string(intent.Status), email, e))
}

// HandleProcessPayment handles POST /api/mercadopago/process-payment. Card
// payments usually come back approved and are fulfilled before responding;
// PIX payments come back pending with the QR payload and are fulfilled by
// the webhook once paid.
func (h *Handler) HandleProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req ProcessPaymentRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxWebhookBody), &req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	req.Normalize()
	if err := h.validate.StructCtx(ctx, &req); err != nil {
		httputil.WriteError(w, validationError(err))
		return
	}

	payment, err := h.mpPayments.CreatePayment(ctx, req.CreatePayment())
	if err != nil {
		h.logger.ErrorContext(ctx, "mercado pago payment creation failed",
			"payment_method_id", req.PaymentMethodID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, providerError(err, "payment"))
		return
	}

	outcome, err := normalizer.FromMercadoPagoPayment(payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "mercado pago returned an unusable payment",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment provider returned invalid data"))
		return
	}
	h.logger.InfoContext(ctx, "mercado pago payment created",
		"payment_id", outcome.ProviderPaymentID,
		"status", outcome.Status,
		"status_detail", payment.StatusDetail,
		"request_id", requestID,
	)

	if outcome.Approved() {
		if _, err := h.fulfiller.Fulfill(ctx, outcome); err != nil && !errors.Is(err, service.ErrDeliveryFailed) {
			// The payment stands; the webhook retries the claim.
			h.logger.ErrorContext(ctx, "fulfillment after payment creation failed",
				"payment_id", outcome.ProviderPaymentID,
				"error", err,
				"request_id", requestID,
			)
		}
	}

	resp := ProcessPaymentResponse{
		Status:       payment.Status,
		StatusDetail: payment.StatusDetail,
		ID:           payment.ID.String(),
	}
	if req.PaymentMethodID == "pix" {
		resp.QRCode = outcome.RawMetadata[paymodels.MetaQRCode]
		resp.QRCodeBase64 = outcome.RawMetadata[paymodels.MetaQRCodeBase64]
		resp.TicketURL = outcome.RawMetadata[paymodels.MetaTicketURL]
	}
	render.JSON(w, r, resp)
}

// HandleEntitlement handles GET /api/entitlements/{provider}/{paymentID}. It
// serves the public view; operators read the full record through
// HandleFulfillment.
func (h *Handler) HandleEntitlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.lookupLimiter != nil && !h.lookupLimiter.Allow() {
		if h.metrics != nil {
			h.metrics.IncrementRateLimited()
		}
		w.Header().Set("Retry-After", "1")
		httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many entitlement lookups"))
		return
	}

	key, err := pathKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.entitlements.Lookup(ctx, key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	render.JSON(w, r, e.Public())
}
