// Package metrics exposes clipforge's Prometheus instrumentation. Grounded
// on the teacher's internal/metrics/metrics.go (promauto-registered package
// vars, per-stage HistogramVec, stage/error_type labeled CounterVec), with
// the call-center-specific series (CallsActive, VAD, WER, RAG) replaced by
// clipforge's own pipeline stages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipforge_jobs_active",
		Help: "Jobs currently running in the orchestrator",
	})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_jobs_total",
		Help: "Total jobs completed, by terminal state",
	}, []string{"state"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipforge_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"stage"})

	E2EDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clipforge_e2e_duration_seconds",
		Help:    "End-to-end latency from job start to final clip written",
		Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
	})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_errors_total",
		Help: "Error counts by stage and error type",
	}, []string{"stage", "error_type"})

	WindowsConsidered = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clipforge_windows_considered",
		Help:    "Candidate windows generated per job",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500},
	})

	WindowsDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_windows_degraded_total",
		Help: "Windows that fell back to a sentinel grade or were dropped",
	}, []string{"reason"})

	GraderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipforge_grader_latency_seconds",
		Help:    "LLM grading call latency by backend",
		Buckets: []float64{0.2, 0.5, 1, 2, 5, 10, 20},
	}, []string{"backend"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipforge_render_duration_seconds",
		Help:    "ffmpeg render latency by encoder profile",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"profile"})

	RenderFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipforge_render_hw_fallbacks_total",
		Help: "Renders that fell back from hardware to CPU encoding",
	})

	ScratchBytesInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipforge_scratch_bytes_in_use",
		Help: "Bytes currently occupied by the job's scratch directory",
	})
)
