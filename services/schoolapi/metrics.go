package schoolapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records the backend requests issued by a Client.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the request metrics and registers them with reg, when not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "masomo",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Requests issued to the school backend, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "masomo",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of the requests issued to the school backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency)
	}
	return m
}

// observe records one request; code 0 means no response was received.
func (m *Metrics) observe(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(method, route, label).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Requests returns the request counter, for inspection.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}
