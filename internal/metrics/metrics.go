// Package metrics exposes Prometheus instrumentation for the indexer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for guestdex.
type Metrics struct {
	PagesServedTotal    prometheus.Counter
	RecordsServedTotal  prometheus.Counter
	RecordsDroppedTotal prometheus.Counter

	IndexRebuildsTotal  *prometheus.CounterVec // outcome: ok|error|shared
	IndexSize           prometheus.Gauge
	IndexRebuildSeconds prometheus.Histogram

	LedgerErrorsTotal *prometheus.CounterVec // op: scan_owned|fetch_batch
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PagesServedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestdex_pages_served_total",
			Help: "Number of pages returned to callers",
		}),
		RecordsServedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestdex_records_served_total",
			Help: "Number of decoded records returned to callers",
		}),
		RecordsDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestdex_records_dropped_total",
			Help: "Number of page positions dropped because the account was missing or its payload undecodable",
		}),
		IndexRebuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestdex_index_rebuilds_total",
			Help: "Index rebuild attempts by outcome",
		}, []string{"outcome"}),
		IndexSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "guestdex_index_size",
			Help: "Number of account identifiers in the current index",
		}),
		IndexRebuildSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guestdex_index_rebuild_seconds",
			Help:    "Wall time of index rebuild scans",
			Buckets: prometheus.DefBuckets,
		}),
		LedgerErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestdex_ledger_errors_total",
			Help: "Ledger RPC failures by operation",
		}, []string{"op"}),
	}
}

// NewNop returns metrics registered on a throwaway registry, for tests and
// callers that do not scrape.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
