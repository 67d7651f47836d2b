// Package obs provides observability functionality including metrics and HTTP endpoints
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	QueueDepth           prometheus.Gauge
	EventsIngestedTotal  prometheus.Counter
	EventsProcessedTotal prometheus.Counter
	RecordsDecodedTotal  prometheus.Counter
	DecodeFailuresTotal  *prometheus.CounterVec
	ValidationFailures   prometheus.Counter
	RetryAttemptsTotal   prometheus.Counter
	DLQMessagesTotal     prometheus.Counter
	RetryExhaustedTotal  prometheus.Counter
}

// NewMetrics creates and initializes a new Metrics instance
// All metrics are registered with the Prometheus default registry
func NewMetrics(serviceName string) *Metrics {
	return NewMetricsWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer registers all metrics with reg instead of the
// default registry.
func NewMetricsWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "queue_depth",
			Help:        "Current depth of the internal event queue",
			ConstLabels: labels,
		}),
		EventsIngestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "events_ingested_total",
			Help:        "Total number of events ingested from the broker into the internal queue",
			ConstLabels: labels,
		}),
		EventsProcessedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "events_processed_total",
			Help:        "Total number of events successfully processed by the pipeline",
			ConstLabels: labels,
		}),
		RecordsDecodedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "sns_records_decoded_total",
			Help:        "Total number of SNS records decoded from envelopes",
			ConstLabels: labels,
		}),
		DecodeFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "sns_decode_failures_total",
			Help:        "Total number of SNS envelopes rejected by the decoder, by error kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name:        "sns_validation_failures_total",
			Help:        "Total number of decoded SNS envelopes rejected by validation",
			ConstLabels: labels,
		}),
		RetryAttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "retry_attempts_total",
			Help:        "Total number of retry attempts for failed events",
			ConstLabels: labels,
		}),
		DLQMessagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "dlq_messages_total",
			Help:        "Total number of messages sent to the dead-letter queue",
			ConstLabels: labels,
		}),
		RetryExhaustedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "retry_exhausted_total",
			Help:        "Total number of messages that exhausted all retry attempts",
			ConstLabels: labels,
		}),
	}
}

// IncrementEventsIngested increments the events ingested counter by 1
func (m *Metrics) IncrementEventsIngested() {
	m.EventsIngestedTotal.Inc()
}

// IncrementEventsProcessed increments the events processed counter by 1
func (m *Metrics) IncrementEventsProcessed() {
	m.EventsProcessedTotal.Inc()
}

// AddRecordsDecoded adds n to the decoded SNS records counter
func (m *Metrics) AddRecordsDecoded(n int) {
	m.RecordsDecodedTotal.Add(float64(n))
}

// IncrementDecodeFailures increments the decode failure counter for kind
func (m *Metrics) IncrementDecodeFailures(kind string) {
	m.DecodeFailuresTotal.WithLabelValues(kind).Inc()
}

// IncrementValidationFailures increments the validation failure counter by 1
func (m *Metrics) IncrementValidationFailures() {
	m.ValidationFailures.Inc()
}

// IncrementQueueDepth increments the queue depth gauge metric by 1
func (m *Metrics) IncrementQueueDepth() {
	m.QueueDepth.Inc()
}

// DecrementQueueDepth decrements the queue depth gauge metric by 1
func (m *Metrics) DecrementQueueDepth() {
	m.QueueDepth.Dec()
}

// NullifyQueueDepth sets the queue depth gauge metric to 0
func (m *Metrics) NullifyQueueDepth() {
	m.QueueDepth.Set(0)
}

// IncrementRetryAttempts increments the retry attempts counter by 1
func (m *Metrics) IncrementRetryAttempts() {
	m.RetryAttemptsTotal.Inc()
}

// IncrementDLQMessages increments the DLQ messages counter by 1
func (m *Metrics) IncrementDLQMessages() {
	m.DLQMessagesTotal.Inc()
}

// IncrementRetryExhausted increments the retry exhausted counter by 1
func (m *Metrics) IncrementRetryExhausted() {
	m.RetryExhaustedTotal.Inc()
}
