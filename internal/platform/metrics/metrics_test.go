package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/entitlements/{provider}/{paymentID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entitlements/stripe/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.Requests.WithLabelValues("/api/entitlements/{provider}/{paymentID}", http.MethodGet, "200")))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementWebhook("stripe", "fulfilled")
	m.IncrementRateLimited()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Webhooks.WithLabelValues("stripe", "fulfilled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}
