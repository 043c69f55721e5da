package httptransport

import (
	"net/http"

	"github.com/go-chi/render"

	"phasegarden/internal/payment/providers/stripeclient"
	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/httputil"
	"phasegarden/pkg/requestcontext"
)

// checkoutBodyLimit caps the creation request bodies.
const checkoutBodyLimit = 4 << 10

func (h *Handler) decodeCheckout(w http.ResponseWriter, r *http.Request) (*CheckoutRequest, bool) {
	var req CheckoutRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, checkoutBodyLimit), &req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	req.Normalize()
	if err := h.validate.StructCtx(r.Context(), &req); err != nil {
		httputil.WriteError(w, validationError(err))
		return nil, false
	}
	return &req, true
}

// HandleCreatePaymentIntent handles POST /api/create-payment-intent for the
// embedded card form.
func (h *Handler) HandleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := h.decodeCheckout(w, r)
	if !ok {
		return
	}

	pi, err := h.stripe.CreatePaymentIntent(ctx, stripeclient.IntentRequest{Product: req.product(), Email: req.Email})
	if err != nil {
		h.logger.ErrorContext(ctx, "payment intent creation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, providerError(err, "payment intent"))
		return
	}
	h.logger.InfoContext(ctx, "payment intent created",
		"payment_intent", pi.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	render.JSON(w, r, PaymentIntentResponse{ClientSecret: pi.ClientSecret})
}

// HandleCheckout handles POST /api/checkout. The buyer returns to the
// storefront success page with the session id, which /api/session resolves.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := h.decodeCheckout(w, r)
	if !ok {
		return
	}

	cs, err := h.stripe.CreateCheckoutSession(ctx, stripeclient.CheckoutRequest{
		Product:    req.product(),
		Email:      req.Email,
		SuccessURL: h.siteURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  h.siteURL + "/checkout",
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "checkout session creation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, providerError(err, "checkout session"))
		return
	}
	h.logger.InfoContext(ctx, "checkout session created",
		"session_id", cs.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	render.JSON(w, r, CheckoutSessionResponse{SessionID: cs.ID, URL: cs.URL})
}

// HandleCreatePreference handles POST /api/mercadopago/create-preference for
// the Checkout Pro redirect flow.
func (h *Handler) HandleCreatePreference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := h.decodeCheckout(w, r)
	if !ok {
		return
	}

	pref, err := h.mpPayments.CreatePreference(ctx, req.Preference(h.siteURL))
	if err != nil {
		h.logger.ErrorContext(ctx, "mercado pago preference creation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, providerError(err, "payment preference"))
		return
	}
	h.logger.InfoContext(ctx, "mercado pago preference created",
		"preference_id", pref.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	render.JSON(w, r, pref)
}
