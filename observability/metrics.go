// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the relay pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds metric instruments for the relay.
type Metrics struct {
	MessagesReceived prometheus.Counter
	MessagesTotal    *prometheus.CounterVec
	DispatchTotal    *prometheus.CounterVec
	DispatchLatency  prometheus.Histogram
	RulesEvaluated   prometheus.Counter
}

// NewMetrics creates relay metric instruments registered with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MessagesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "smsrelay_messages_received_total",
			Help: "Inbound messages accepted by the forward operation.",
		}),
		MessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smsrelay_messages_total",
			Help: "Persisted messages by terminal status.",
		}, []string{"status"}),
		DispatchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smsrelay_dispatch_total",
			Help: "Delivery attempts by transport kind and outcome.",
		}, []string{"kind", "status"}),
		DispatchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "smsrelay_dispatch_latency_seconds",
			Help:    "Time spent handing a message to the mail transport.",
			Buckets: prometheus.DefBuckets,
		}),
		RulesEvaluated: f.NewCounter(prometheus.CounterOpts{
			Name: "smsrelay_rule_evaluations_total",
			Help: "Forwarding decisions taken by the rule evaluator.",
		}),
	}
}

// RecordMessage counts a persisted message by status.
func (m *Metrics) RecordMessage(status string) {
	m.MessagesTotal.WithLabelValues(status).Inc()
}

// RecordDispatch records a delivery attempt with the given outcome and latency.
func (m *Metrics) RecordDispatch(kind, status string, latencySeconds float64) {
	m.DispatchTotal.WithLabelValues(kind, status).Inc()
	m.DispatchLatency.Observe(latencySeconds)
}
