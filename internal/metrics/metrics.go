// Package metrics exposes the relay's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsRelayed counts normalized events appended and broadcast, by kind.
	EventsRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total number of normalized events relayed, by kind",
		},
		[]string{"kind"},
	)

	// UpstreamConnections tracks live upstream handles.
	UpstreamConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_upstream_connections",
			Help: "Number of live upstream connections",
		},
	)

	// ConnectFailures counts failed upstream connect attempts.
	ConnectFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_upstream_connect_failures_total",
			Help: "Total number of failed upstream connect attempts",
		},
	)

	// PushSubscribers tracks connected push-channel sessions.
	PushSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_push_subscribers",
			Help: "Number of connected push-channel sessions",
		},
	)

	// Polls counts pull-endpoint requests that passed validation.
	Polls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_polls_total",
			Help: "Total number of pull-endpoint polls",
		},
	)
)

func init() {
	prometheus.MustRegister(EventsRelayed)
	prometheus.MustRegister(UpstreamConnections)
	prometheus.MustRegister(ConnectFailures)
	prometheus.MustRegister(PushSubscribers)
	prometheus.MustRegister(Polls)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
