package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phasegarden/internal/platform/metrics"
	"phasegarden/pkg/platform/middleware/admin"
	"phasegarden/pkg/platform/middleware/metadata"
	"phasegarden/pkg/platform/middleware/request"
	"phasegarden/pkg/platform/middleware/requesttime"
)

const requestTimeout = 40 * time.Second

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// AdminTokens enables /admin routes when set.
	AdminTokens admin.TokenValidator

	// Readiness checks run on /readyz; any failure answers 503.
	Readiness map[string]func(context.Context) error
}

// NewRouter wires middleware, the public and operator routes, /metrics,
// /healthz and /readyz.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(request.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.AccessLog(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(cfg.Readiness, logger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		h.Register(r)
		if cfg.AdminTokens != nil {
			r.Group(func(r chi.Router) {
				r.Use(admin.RequireOperator(cfg.AdminTokens, logger))
				h.RegisterAdmin(r)
			})
		}
	})
	return r
}

func readiness(checks map[string]func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		render.Status(r, status)
		render.JSON(w, r, results)
	}
}
