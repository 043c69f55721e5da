package httptransport

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"phasegarden/internal/fulfillment/service"
	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/httputil"
	"phasegarden/pkg/requestcontext"
)

// HandleResend handles POST /admin/fulfillments/{provider}/{paymentID}/resend.
// The body is optional; {"force": true} resends an already delivered serial
// and {"email": "..."} fills a missing payer address.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := pathKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req ResendRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, 1<<10), &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.StructCtx(ctx, &req); err != nil {
		httputil.WriteError(w, validationError(err))
		return
	}

	res, err := h.fulfiller.Resend(ctx, key, service.ResendOptions{Force: req.Force, Email: req.Email})
	if err != nil && !errors.Is(err, service.ErrDeliveryFailed) {
		h.logger.WarnContext(ctx, "operator resend refused",
			"key", key.String(),
			"operator", requestcontext.Operator(ctx),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if err != nil {
		// The serial stands; report the failed send to the operator.
		render.Status(r, http.StatusBadGateway)
	}
	render.JSON(w, r, resendResponse(res))
}

// HandleFulfillment handles GET /admin/fulfillments/{provider}/{paymentID}
// with the unmasked serial and payer email.
func (h *Handler) HandleFulfillment(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.entitlements.Lookup(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	render.JSON(w, r, e)
}
