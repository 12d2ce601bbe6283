package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VariantsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vlmlabel_variants_processed_total",
		Help: "Total number of variant/clip renditions processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vlmlabel_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlmlabel_frames_extracted_total",
		Help: "Total number of frames extracted across all variants",
	})

	VariantsWithoutTimestamps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlmlabel_variants_without_timestamps_total",
		Help: "Variants persisted with the fixed-interval timestamp fallback",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vlmlabel_active_workers",
		Help: "Number of currently active variant workers",
	})

	VideosProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vlmlabel_videos_processed_total",
		Help: "Total number of videos processed, by outcome",
	}, []string{"outcome"})
)
