// Package metrics collects measurements about bundling cycles.
//
// Cycles are short-lived batch runs, so metrics are not scraped: they are
// written to a file in the prometheus text format, to be picked up by the
// textfile collector of node_exporter.
package metrics

import (
	"time"

	"github.com/docker/go-units"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// KB stands for kilo bytes (1024 bytes)
	KB = units.KiB

	// MB stands for mega bytes (1024 kilo bytes)
	MB = units.MiB

	// GB stands for giga bytes (1024 mega bytes)
	GB = units.GiB
)

// Cycle holds the metrics of bundling cycles, registered on a private registry
type Cycle struct {
	registry *prometheus.Registry

	bundles     prometheus.Counter
	units       prometheus.Counter
	bytes       prometheus.Counter
	issues      *prometheus.CounterVec
	pending     prometheus.Gauge
	interrupted prometheus.Gauge
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
	bundleSize  prometheus.Histogram
	_           struct{}
}

// New registers cycle metrics
func New(opts ...Option) *Cycle {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Subsystem: "cycle", Name: name, Help: help, ConstLabels: s.labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: s.namespace, Subsystem: "cycle", Name: name, Help: help, ConstLabels: s.labels,
		})
	}

	c := &Cycle{
		registry:    prometheus.NewRegistry(),
		bundles:     counter("bundles_committed_total", "Number of bundles committed."),
		units:       counter("units_moved_total", "Number of units relocated into committed bundles."),
		bytes:       counter("bytes_bundled_total", "Bytes of unit content relocated into committed bundles."),
		pending:     gauge("units_pending", "Eligible units found in staging at the start of the last cycle."),
		interrupted: gauge("interrupted", "1 when the last cycle was interrupted before all bundles were processed."),
		duration:    gauge("duration_seconds", "Duration of the last cycle."),
		lastSuccess: gauge("last_success_timestamp_seconds", "Completion time of the last uninterrupted cycle without integrity failures."),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace, Subsystem: "cycle", Name: "issues_total", Help: "Units or bundles skipped or flagged, by kind.", ConstLabels: s.labels,
		}, []string{"kind"}),
		bundleSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: s.namespace, Subsystem: "cycle", Name: "bundle_size_bytes", Help: "Size of committed bundles.", ConstLabels: s.labels,
			Buckets: prometheus.ExponentialBuckets(MB, 4, 12),
		}),
	}
	c.registry.MustRegister(c.bundles, c.units, c.bytes, c.issues, c.pending, c.interrupted, c.duration, c.lastSuccess, c.bundleSize)

	for _, kind := range []model.IssueKind{model.IssueIO, model.IssueIntegrity} {
		c.issues.WithLabelValues(string(kind))
	}
	return c
}

// Registry exposes the registry holding the cycle metrics
func (c *Cycle) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records the outcome of a cycle
func (c *Cycle) Observe(summary model.CycleSummary) {
	if c == nil {
		return
	}
	for _, b := range summary.Bundles {
		if !b.Committed {
			continue
		}
		c.bundles.Inc()
		c.units.Add(float64(len(b.Moved)))
		c.bytes.Add(float64(b.TotalSize))
		c.bundleSize.Observe(float64(b.TotalSize))
	}
	for _, issue := range summary.Issues {
		c.issues.WithLabelValues(string(issue.Kind)).Inc()
	}
	c.pending.Set(float64(summary.UnitsPending))
	if summary.Interrupted {
		c.interrupted.Set(1)
	} else {
		c.interrupted.Set(0)
	}
	c.duration.Set(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	if !summary.Interrupted && !summary.HasIntegrityFailures() {
		c.lastSuccess.Set(float64(summary.FinishedAt.UnixNano()) / float64(time.Second))
	}
}

// WriteTextfile atomically writes all metrics to a file in the prometheus text exposition format
func (c *Cycle) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
