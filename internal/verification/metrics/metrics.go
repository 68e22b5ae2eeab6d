package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification read path.
type Metrics struct {
	// Verification outcomes by error kind ("ok" on success)
	VerificationOutcome *prometheus.CounterVec

	// Trust-score results by the tier that produced them
	TrustScoreSource *prometheus.CounterVec

	// Document fetch latency by outcome
	FetchDuration *prometheus.HistogramVec
}

// New registers the verification metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VerificationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustverify_verification_outcomes_total",
			Help: "Verification lookups by outcome kind",
		}, []string{"kind"}),

		TrustScoreSource: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustverify_trust_score_results_total",
			Help: "Trust-score results by provenance tier",
		}, []string{"source"}),

		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustverify_document_fetch_duration_seconds",
			Help:    "Duration of document store fetches",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementVerificationOutcome(kind string) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementTrustScoreSource(source string) {
	if m != nil {
		m.TrustScoreSource.WithLabelValues(source).Inc()
	}
}

// ObserveFetch records a fetch that started at start.
func (m *Metrics) ObserveFetch(outcome string, start time.Time) {
	if m != nil {
		m.FetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}
