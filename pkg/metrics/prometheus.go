package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics of the validation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DumpsProcessed    prometheus.Counter
	RecordsValidated  *prometheus.CounterVec
	Violations        *prometheus.CounterVec
	BatchTime         prometheus.Histogram
	ErrorsCount       *prometheus.CounterVec
	MissingSequenceNo *prometheus.GaugeVec
}

// NewMetrics registers the metrics on the default registry
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the metrics on reg
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DumpsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dumps_processed_total",
			Help:      "The total number of processed record dumps",
		}),
		RecordsValidated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_validated_total",
			Help:      "The total number of validated passenger records by outcome",
		}, []string{"outcome"}),
		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "The total number of violation messages by category",
		}, []string{"category"}),
		BatchTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_time_seconds",
			Help:      "Time taken to validate one batch of records",
			Buckets:   prometheus.DefBuckets,
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
		MissingSequenceNo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "missing_sequence_numbers",
			Help:      "Sequence numbers missing from the observed range per flight",
		}, []string{"flight"}),
	}
}

func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.RecordsValidated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveViolations(category string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Violations.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) ObserveBatch(started time.Time) {
	if m == nil {
		return
	}
	m.BatchTime.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveError(operation string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveDump() {
	if m == nil {
		return
	}
	m.DumpsProcessed.Inc()
}

func (m *Metrics) SetMissing(flightID string, n int) {
	if m == nil {
		return
	}
	m.MissingSequenceNo.WithLabelValues(flightID).Set(float64(n))
}
