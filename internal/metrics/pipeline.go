package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftforge",
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"status"}, // completed / failed / rejected
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "draftforge",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.05, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	PipelineFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftforge",
			Name:      "pipeline_fallbacks_total",
			Help:      "Fail-open fallbacks taken by optional pipeline stages",
		},
		[]string{"stage", "reason"},
	)

	RetrievalSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftforge",
			Name:      "retrieval_searches_total",
			Help:      "Vector index searches by source type and status",
		},
		[]string{"source", "status"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineFallbacksTotal)
	prometheus.MustRegister(RetrievalSearchesTotal)
	pipelineMetricsRegistered = true
}
