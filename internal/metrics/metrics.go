// Package metrics holds the Prometheus collectors shared by the store, the
// authentication path and the background workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WriteAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacina_store_write_attempts_total",
		Help: "Total number of write attempts against the store, by outcome (ok, retry, failed, exhausted).",
	}, []string{"outcome"})
	QueryCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacina_query_cache_lookups_total",
		Help: "Total number of read cache lookups, by result (hit, miss).",
	}, []string{"result"})
	QueryCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vacina_query_cache_entries",
		Help: "Current number of entries held by the read cache.",
	})
	QueryCacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacina_query_cache_invalidated_entries_total",
		Help: "Total number of read cache entries purged by write invalidation.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacina_login_attempts_total",
		Help: "Total number of authentication attempts, by outcome (success, throttled, locked, rejected, error).",
	}, []string{"outcome"})
	BackupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacina_backups_total",
		Help: "Total number of store backups, by status (ok, failed).",
	}, []string{"status"})
	BackupBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vacina_backup_last_size_bytes",
		Help: "Size in bytes of the most recent successful backup.",
	})
)
