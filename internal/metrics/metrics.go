// Package metrics exposes prometheus counters for the ledger core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts read-cache hits per logical resource key.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtbook_cache_hits_total",
		Help: "Number of read cache hits, by cache key.",
	}, []string{"key"})

	// CacheMisses counts read-cache misses (fetcher invocations) per key.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtbook_cache_misses_total",
		Help: "Number of read cache misses, by cache key.",
	}, []string{"key"})

	// Mutations counts successful ledger mutations by action kind.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtbook_mutations_total",
		Help: "Number of successful ledger mutations, by action.",
	}, []string{"action"})

	// Settlements counts completed settlements (archive written).
	Settlements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debtbook_settlements_total",
		Help: "Number of settlements archived.",
	})

	// SettlementDeleteFailures counts the archived-but-still-active
	// partial failure mode, which a reconciliation job should drain.
	SettlementDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debtbook_settlement_delete_failures_total",
		Help: "Number of settlements where the archive was written but the active rows could not be deleted.",
	})
)
