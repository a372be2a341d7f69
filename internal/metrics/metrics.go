// Package metrics holds the prometheus collectors shared across soclip.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soclip_pipeline_operations_total",
		Help: "Pipeline operations by operation and result",
	}, []string{"op", "result"})

	ExternalProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "soclip_external_process_duration_seconds",
		Help:    "Wall-clock duration of delegated tool invocations",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"tool", "op"})

	HighlightExtractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soclip_highlight_extractions_total",
		Help: "Highlight extraction attempts by outcome",
	}, []string{"result"})

	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soclip_sweep_runs_total",
		Help: "Completed working-directory sweeps",
	})

	SweepRemovedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soclip_sweep_removed_files_total",
		Help: "Files removed by the sweep per working directory",
	}, []string{"dir"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "soclip_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soclip_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})
)

// ObserveProcess records how long a delegated tool ran.
func ObserveProcess(tool, op string, start time.Time) {
	ExternalProcessDuration.WithLabelValues(tool, op).Observe(time.Since(start).Seconds())
}

// CountOperation increments the operation counter with "ok" or "error".
func CountOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PipelineOperations.WithLabelValues(op, result).Inc()
}
