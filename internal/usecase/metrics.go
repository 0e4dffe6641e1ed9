package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfpintel_ingest_files_total",
		Help: "Files taken from the ingestion backlog, by outcome.",
	}, []string{"outcome"}) // processed, failed, skipped

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rfpintel_ingest_duration_seconds",
		Help:    "Wall time of a single-file ingestion (parse, analyze, persist).",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	artifactRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfpintel_artifact_requests_total",
		Help: "Artifact resolutions, by kind and how they were served.",
	}, []string{"kind", "source"}) // registry, memo, computed, shared, failed

	backlogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rfpintel_backlog_files",
		Help: "Files discovered but not yet ingested at the last discovery.",
	})
)
