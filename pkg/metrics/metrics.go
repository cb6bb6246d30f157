// Package metrics provides Prometheus metrics for the pipeline and API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsNormalizedTotal tracks normalized rows by record type
	RowsNormalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftm",
			Subsystem: "normalize",
			Name:      "rows_total",
			Help:      "Total number of staging rows normalized by record type",
		},
		[]string{"record_type"},
	)

	// RowsSkippedTotal tracks rows dropped during normalization by reason
	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftm",
			Subsystem: "normalize",
			Name:      "rows_skipped_total",
			Help:      "Total number of staging rows skipped by reason",
		},
		[]string{"record_type", "reason"},
	)

	// RunDuration tracks end-to-end normalization run duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ftm",
			Subsystem: "normalize",
			Name:      "run_duration_seconds",
			Help:      "Duration of normalization runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"status"},
	)

	// StagingRowsLandedTotal tracks rows landed in staging by record type
	StagingRowsLandedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftm",
			Subsystem: "ingest",
			Name:      "staging_rows_total",
			Help:      "Total number of raw rows landed in staging by record type",
		},
		[]string{"record_type"},
	)

	// DownloadBytesTotal tracks bytes downloaded from bulk sources
	DownloadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftm",
			Subsystem: "ingest",
			Name:      "download_bytes_total",
			Help:      "Total bytes downloaded from source endpoints",
		},
		[]string{"source"},
	)

	// LeaningScoresWritten tracks scores written per computation
	LeaningScoresWritten = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ftm",
			Subsystem: "leaning",
			Name:      "scores_written",
			Help:      "Number of leaning scores written by the last computation",
		},
	)

	// LeaningComputeDuration tracks score computation duration in seconds
	LeaningComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ftm",
			Subsystem: "leaning",
			Name:      "compute_duration_seconds",
			Help:      "Duration of leaning score computations in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
)
