package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики процессора. Экспортируются на /metrics endpoint.
var (
	// MessagesProcessed — обработанные сообщения по исходу:
	// ok, failed, duplicate, invalid.
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valora_messages_processed_total",
		Help: "Processed task messages by outcome.",
	}, []string{"outcome"})

	// DeadLetters — сообщения, отправленные в DLQ.
	DeadLetters = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valora_dead_letters_total",
		Help: "Messages published to the dead letter queue.",
	})

	// DedupHits — сообщения, отброшенные локальной дедупликацией.
	DedupHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valora_dedup_hits_total",
		Help: "Messages skipped because the message id was already processed.",
	})

	// Reconnects — успешные переподключения к брокеру.
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valora_broker_reconnects_total",
		Help: "Successful broker reconnects.",
	})

	// StepDuration — длительность шагов workflow.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valora_step_duration_seconds",
		Help:    "Workflow step duration.",
		Buckets: []float64{.1, .5, 1, 5, 15, 60, 180, 600},
	}, []string{"step"})

	// StepFailures — ошибки шагов workflow.
	StepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valora_step_failures_total",
		Help: "Workflow step failures.",
	}, []string{"step"})

	// InFlight — сообщения в обработке прямо сейчас.
	InFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "valora_messages_in_flight",
		Help: "Messages currently being processed.",
	})
)
