// Package metrics exposes check statistics in Prometheus format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

// Collector counts checked lines. A nil *Collector is a no-op.
type Collector struct {
	registry *prometheus.Registry

	lines    prometheus.Counter
	invalid  prometheus.Counter
	fields   *prometheus.CounterVec
	duration prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verixfer_lines_total",
			Help: "Transfer log lines read.",
		}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verixfer_invalid_lines_total",
			Help: "Transfer log lines that failed validation.",
		}),
		fields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verixfer_invalid_fields_total",
			Help: "Invalid lines by first failing field.",
		}, []string{"field"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "verixfer_check_duration_seconds",
			Help: "Wall time of the last check run.",
		}),
	}
	c.registry.MustRegister(c.lines, c.invalid, c.fields, c.duration)
	return c
}

// Observe records the result of one line.
func (c *Collector) Observe(r xferlog.Result) {
	if c == nil {
		return
	}
	c.lines.Inc()
	if !r.OK() {
		c.invalid.Inc()
		c.fields.WithLabelValues(r.Field().Name()).Inc()
	}
}

// ObserveDuration records how long the run took.
func (c *Collector) ObserveDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.duration.Set(d.Seconds())
}

// Gatherer returns the registry backing the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
