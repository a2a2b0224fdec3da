// Package metrics exposes beacon's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrySize tracks the number of live records in the registry.
	RegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_registry_size",
		Help: "Number of live service records in the registry",
	})

	// Operations counts registry operations by operation and outcome.
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_registry_operations_total",
		Help: "Total registry operations by operation and status",
	}, []string{"operation", "status"})

	// EvictionsTotal counts records removed by the eviction sweeper.
	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_registry_evictions_total",
		Help: "Total records evicted after lease expiry",
	})
)

// Operation outcome labels.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)
