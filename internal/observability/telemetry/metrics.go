package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthvoice_interactions_total",
		Help: "Interactions processed, by input path and outcome",
	}, []string{"input", "outcome"})

	StageCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthvoice_stage_calls_total",
		Help: "External stage calls, by stage and status",
	}, []string{"stage", "status"})

	StageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "healthvoice_stage_latency_seconds",
		Help:    "Latency of external stage calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
	}, []string{"stage"})

	InteractionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "healthvoice_interaction_latency_seconds",
		Help:    "End-to-end latency of one interaction",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
	})

	ReplyTruncationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthvoice_reply_truncations_total",
		Help: "Replies cut to the synthesis input ceiling",
	})

	EventPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthvoice_event_publish_failures_total",
		Help: "Interaction events that could not be published",
	})
)
