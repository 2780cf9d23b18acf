package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Wall time of a full pipeline run
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rfm_pipeline_duration_seconds",
		Help:    "Duration of RFM pipeline runs",
		Buckets: prometheus.DefBuckets,
	})

	PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfm_pipeline_runs_total",
		Help: "Pipeline runs by outcome",
	}, []string{"status"})

	SegmentCustomers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rfm_segment_customers",
		Help: "Customers per rule-based segment in the current result",
	}, []string{"segment"})

	ClusterInertia = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfm_cluster_inertia",
		Help: "Inertia of the current k-means result",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfm_http_requests_total",
		Help: "HTTP requests served by the dashboard",
	}, []string{"method", "status"})
)

var registerOnce sync.Once

// InitMetrics registers the collectors with the default registry. Safe to
// call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PipelineDuration,
			PipelineRuns,
			SegmentCustomers,
			ClusterInertia,
			HTTPRequests,
		)
	})
}
