package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// risk assessment engine.
type Metrics struct {
	MessagesConsumed    prometheus.Counter
	AssessmentsProduced prometheus.Counter
	AssessmentErrors    prometheus.Counter
	EnsembleExhausted   prometheus.Counter
	EngineRunning       prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Ensemble metrics.
	VariantFailures    *prometheus.CounterVec   // labels: profile, variant
	AssessmentDuration prometheus.Histogram     // full pipeline per record
	RiskScore          *prometheus.HistogramVec // labels: profile
	Confidence         *prometheus.HistogramVec // labels: profile
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.AssessmentsProduced,
		m.AssessmentErrors,
		m.EnsembleExhausted,
		m.EngineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.VariantFailures,
		m.AssessmentDuration,
		m.RiskScore,
		m.Confidence,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	unit := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "messages_consumed_total",
			Help:      "Total observation windows read from the source topic.",
		}),
		AssessmentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "assessments_produced_total",
			Help:      "Total risk assessments written to the sink topic.",
		}),
		AssessmentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "assessment_errors_total",
			Help:      "Total records dropped due to validation or ensemble failure.",
		}),
		EnsembleExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "ensemble_exhausted_total",
			Help:      "Total requests where every variant of a profile failed.",
		}),
		EngineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_engine",
			Name:      "engine_running",
			Help:      "1 when the engine loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "batch_size",
			Help:      "Number of observation windows per extracted batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-assess-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		VariantFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "variant_failures_total",
			Help:      "Per-variant inference failures excluded from aggregation.",
		}, []string{"profile", "variant"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of one full normalize-predict-aggregate pass.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		RiskScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "risk_score",
			Help:      "Distribution of aggregated risk scores by profile.",
			Buckets:   unit,
		}, []string{"profile"}),
		Confidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "confidence",
			Help:      "Distribution of assessment confidence by profile.",
			Buckets:   unit,
		}, []string{"profile"}),
	}
}
