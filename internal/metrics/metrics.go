// Package metrics holds the executor's runtime bookkeeping, built on the
// sharded counters so the hot path never contends, plus a prometheus
// collector folding them on scrape.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/flowgridgo/internal/concurrent"
)

// ExecutorStats aggregates one executor's activity. Workers write through
// per-goroutine counter handles; readers fold on demand.
type ExecutorStats struct {
	// Completed counts vertexes that finished successfully.
	Completed concurrent.Adder
	// Failed counts vertexes whose handler returned an error.
	Failed concurrent.Adder
	// QueueDepth tracks the deepest runnable backlog seen this epoch.
	QueueDepth concurrent.Maxer
	// RunLatency accumulates handler wall time in microseconds.
	RunLatency concurrent.Summer
}

// NewExecutorStats returns zeroed stats.
func NewExecutorStats() *ExecutorStats {
	return &ExecutorStats{}
}

var (
	descCompleted = prometheus.NewDesc(
		"flowgrid_vertex_completed_total",
		"Vertexes that finished successfully.",
		nil, nil)
	descFailed = prometheus.NewDesc(
		"flowgrid_vertex_failed_total",
		"Vertexes whose handler returned an error.",
		nil, nil)
	descQueueDepth = prometheus.NewDesc(
		"flowgrid_runnable_queue_depth_max",
		"Deepest runnable backlog observed in the current epoch.",
		nil, nil)
	descRunLatency = prometheus.NewDesc(
		"flowgrid_vertex_run_microseconds",
		"Handler wall time.",
		nil, nil)
)

// Collector exposes ExecutorStats to prometheus. Register it once per
// stats instance.
type Collector struct {
	stats *ExecutorStats
}

// NewCollector wraps stats for prometheus registration.
func NewCollector(stats *ExecutorStats) *Collector {
	return &Collector{stats: stats}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descCompleted
	ch <- descFailed
	ch <- descQueueDepth
	ch <- descRunLatency
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descCompleted,
		prometheus.CounterValue, float64(c.stats.Completed.Value()))
	ch <- prometheus.MustNewConstMetric(descFailed,
		prometheus.CounterValue, float64(c.stats.Failed.Value()))
	ch <- prometheus.MustNewConstMetric(descQueueDepth,
		prometheus.GaugeValue, float64(c.stats.QueueDepth.MaxOrZero()))
	latency := c.stats.RunLatency.Value()
	ch <- prometheus.MustNewConstSummary(descRunLatency,
		uint64(latency.Num), float64(latency.Sum), nil)
}
