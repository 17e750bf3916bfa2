// Package metrics provides Prometheus instrumentation for the chat-core
// services. It exposes gauges for connection counts, counters for message and
// moderation throughput, and histograms for evaluation latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatcore_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// MessagesTotal counts messages processed, labeled by outcome:
	// "accepted", "blocked", "muted", or "rate_limited".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcore_messages_total",
		Help: "Total number of messages processed by outcome",
	}, []string{"outcome"})

	// EvaluateLatency records moderation gate evaluation latency in seconds.
	EvaluateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatcore_evaluate_latency_seconds",
		Help:    "Moderation gate evaluation latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// TrustAdjustments counts trust-score adjustments, labeled by direction:
	// "reward" or "penalty".
	TrustAdjustments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcore_trust_adjustments_total",
		Help: "Total number of trust score adjustments by direction",
	}, []string{"direction"})

	// PresenceFetches counts presence poll fetches, labeled by result:
	// "ok", "error", or "rate_limited".
	PresenceFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcore_presence_fetches_total",
		Help: "Total number of presence poll fetches by result",
	}, []string{"result"})

	// ActivePollers tracks the current number of running presence pollers.
	ActivePollers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatcore_active_pollers",
		Help: "Current number of running presence pollers",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		MessagesTotal,
		EvaluateLatency,
		TrustAdjustments,
		PresenceFetches,
		ActivePollers,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
