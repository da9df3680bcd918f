// Package instrumentation exposes Prometheus metrics about the dashboard
// process itself: upstream API calls and dashboard builds.
package instrumentation

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "malti_dashboard"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	builds           *prometheus.CounterVec
	superseded       prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the Malti API by path and status class.",
		}, []string{"path", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of Malti API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_builds_total",
			Help:      "Dashboard builds by outcome.",
		}, []string{"outcome"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_fetches_total",
			Help:      "Fetches discarded because a newer request was issued.",
		}),
	}
	reg.MustRegister(m.upstreamRequests, m.upstreamDuration, m.builds, m.superseded)
	return m
}

// ObserveUpstream records one API call. status 0 means a transport failure.
func (m *Metrics) ObserveUpstream(path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(path, statusClass(status)).Inc()
	m.upstreamDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// ObserveBuild records a dashboard build outcome.
func (m *Metrics) ObserveBuild(outcome string) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(outcome).Inc()
}

// ObserveSuperseded records a discarded stale fetch.
func (m *Metrics) ObserveSuperseded() {
	if m == nil {
		return
	}
	m.superseded.Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "network_error"
	}
	return strconv.Itoa(status/100) + "xx"
}
