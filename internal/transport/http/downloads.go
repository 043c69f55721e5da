package httptransport

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mssola/useragent"

	dErrors "phasegarden/pkg/domain-errors"
	"phasegarden/pkg/platform/httputil"
	"phasegarden/pkg/requestcontext"
)

type TrackDownloadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleTrackDownload handles POST /api/track-download. It only logs.
func (h *Handler) HandleTrackDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TrackDownloadRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, 4<<10), &req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	if err := h.validate.StructCtx(ctx, &req); err != nil {
		httputil.WriteError(w, validationError(err))
		return
	}

	ua := useragent.New(requestcontext.UserAgent(ctx))
	browser, browserVersion := ua.Browser()
	h.logger.InfoContext(ctx, "download tracked",
		"type", req.Type,
		"source", req.Source,
		"ip", requestcontext.ClientIP(ctx),
		"browser", browser,
		"browser_version", browserVersion,
		"os", ua.OS(),
		"mobile", ua.Mobile(),
		"bot", ua.Bot(),
		"request_id", requestcontext.RequestID(ctx),
	)
	render.JSON(w, r, TrackDownloadResponse{Success: true, Message: "Download tracked"})
}
