package sociograph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// pipelineMetrics holds the Prometheus metrics of the visualization
// pipeline. One instance is shared by every engine in the process.
type pipelineMetrics struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec // seconds per pipeline stage
	runs          *prometheus.CounterVec   // finished runs by algorithm and status
	graphNodes    prometheus.Histogram     // analysed graph sizes
}

var (
	metricsOnce sync.Once
	metrics     *pipelineMetrics
)

func pipeline() *pipelineMetrics {
	metricsOnce.Do(func() {
		registry := prometheus.NewRegistry()

		m := &pipelineMetrics{
			registry: registry,
			stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "sociograph",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each visualization pipeline stage",
				Buckets:   prometheus.DefBuckets,
			}, []string{"stage"}),
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sociograph",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Visualization runs by algorithm and outcome",
			}, []string{"algorithm", "status"}),
			graphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "sociograph",
				Subsystem: "pipeline",
				Name:      "graph_nodes",
				Help:      "Node count of analysed graphs",
				Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
			}),
		}

		registry.MustRegister(
			m.stageDuration,
			m.runs,
			m.graphNodes,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = m
	})
	return metrics
}

// MetricsRegistry returns the registry holding the pipeline metrics, for
// exposing on a /metrics endpoint.
func MetricsRegistry() *prometheus.Registry {
	return pipeline().registry
}

// timeStage starts timing a stage; call the returned func when it ends.
func timeStage(stage string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		pipeline().stageDuration.WithLabelValues(stage).Observe(d.Seconds())
		return d
	}
}
