package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess   = "success"
	outcomeRejected  = "rejected"
	outcomeTransport = "transport_error"
	outcomeInvalid   = "invalid"
)

// Metrics counts and times gateway mutations.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics builds the gateway collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "go_fuel",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Backend mutations by entity kind, action and outcome.",
		}, []string{"kind", "action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "go_fuel",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of backend mutations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "action"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(cmd Command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(cmd.Kind), string(cmd.Action), outcome).Inc()
	if outcome != outcomeInvalid {
		m.duration.WithLabelValues(string(cmd.Kind), string(cmd.Action)).Observe(elapsed.Seconds())
	}
}
