// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExportRunsTotal tracks total export runs by terminal state
	ExportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Total number of export runs by terminal state",
		},
		[]string{"state"},
	)

	// ExportRunDuration tracks export run duration in seconds
	ExportRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "export",
			Name:      "run_duration_seconds",
			Help:      "Duration of export runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// RowsExportedTotal tracks valid rows written to artifacts
	RowsExportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "export",
			Name:      "rows_exported_total",
			Help:      "Total number of valid rows written to artifacts",
		},
		[]string{"entity"},
	)

	// RowsRejectedTotal tracks rows routed to the exception plane
	RowsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "export",
			Name:      "rows_rejected_total",
			Help:      "Total number of rows rejected during validation",
		},
		[]string{"entity", "category"},
	)

	// ExternalIDsAssigned tracks external IDs minted per entity
	ExternalIDsAssigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "export",
			Name:      "external_ids_assigned_total",
			Help:      "Total number of external IDs assigned",
		},
		[]string{"entity"},
	)
)
