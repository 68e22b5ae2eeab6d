package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the sharing module.
// Tracks cache effectiveness and how often optimistic writes are undone.
type Metrics struct {
	CacheLookups   *prometheus.CounterVec
	SyncRollbacks  *prometheus.CounterVec
	StaleFallbacks prometheus.Counter
	SharesTotal    *prometheus.CounterVec
}

// New registers the sharing metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustverify_sharing_cache_lookups_total",
			Help: "Sharing preference cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "expired"

		SyncRollbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustverify_sharing_sync_rollbacks_total",
			Help: "Optimistic cache writes reverted after a remote failure",
		}, []string{"op"}),

		StaleFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustverify_sharing_cache_fallbacks_total",
			Help: "Preference reads served from cache because the remote failed",
		}),

		SharesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustverify_sharing_shares_total",
			Help: "Share attempts by terminal status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementRollback(op string) {
	if m != nil {
		m.SyncRollbacks.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncrementStaleFallback() {
	if m != nil {
		m.StaleFallbacks.Inc()
	}
}

func (m *Metrics) IncrementShare(status string) {
	if m != nil {
		m.SharesTotal.WithLabelValues(status).Inc()
	}
}
