package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fulfillment module.
// Tracks claims, deliveries and serial collisions per provider.
type Metrics struct {
	Claims           *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	Skipped          *prometheus.CounterVec
	SerialCollisions prometheus.Counter
	FulfillDuration  prometheus.Histogram
}

// New registers the fulfillment metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Claims: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegarden_fulfillment_claims_total",
			Help: "Idempotency claims by provider and result (claimed, already_claimed)",
		}, []string{"provider", "result"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegarden_fulfillment_deliveries_total",
			Help: "License delivery attempts by provider and final status",
		}, []string{"provider", "status"}),
		Skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegarden_fulfillment_skipped_total",
			Help: "Outcomes that did not trigger fulfillment, by provider and payment status",
		}, []string{"provider", "status"}),
		SerialCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "phasegarden_fulfillment_serial_collisions_total",
			Help: "Generated serials rejected by the unique serial constraint",
		}),
		FulfillDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "phasegarden_fulfillment_duration_seconds",
			Help:    "Duration of Fulfill calls that reached the store",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) IncrementClaim(provider, result string) {
	m.Claims.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) IncrementDelivery(provider, status string) {
	m.Deliveries.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) IncrementSkipped(provider, status string) {
	m.Skipped.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) IncrementSerialCollision() {
	m.SerialCollisions.Inc()
}

// ObserveFulfill records the duration of a Fulfill call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveFulfill(start time.Time) {
	m.FulfillDuration.Observe(time.Since(start).Seconds())
}
