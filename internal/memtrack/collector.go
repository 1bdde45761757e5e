package memtrack

import "github.com/prometheus/client_golang/prometheus"

// Collector exports a Tracker's counters in Prometheus format. Values are read
// at scrape time, so no background goroutine is involved.
type Collector struct {
	tracker     *Tracker
	liveBytes   *prometheus.Desc
	allocations *prometheus.Desc
}

// NewCollector returns a collector bound to t. Register it once per registry:
//
//	prometheus.MustRegister(memtrack.NewCollector(memtrack.Global()))
func NewCollector(t *Tracker) *Collector {
	return &Collector{
		tracker: t,
		liveBytes: prometheus.NewDesc(
			"fibbench_tracked_live_bytes",
			"Bytes currently held by engine buffers",
			nil, nil,
		),
		allocations: prometheus.NewDesc(
			"fibbench_tracked_allocations_total",
			"Allocation events recorded by the engine tracker since the last reset",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.liveBytes
	ch <- c.allocations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.tracker.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.liveBytes, prometheus.GaugeValue, float64(s.LiveBytes))
	ch <- prometheus.MustNewConstMetric(c.allocations, prometheus.CounterValue, float64(s.Allocations))
}

var _ prometheus.Collector = (*Collector)(nil)
