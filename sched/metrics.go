package sched

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports Prometheus counters/gauges for the scheduler, mirroring
// the teacher's ai/metrics.PrometheusExporter: a private registry,
// namespaced metric names, and typed Record/Set methods so call sites
// never touch the prometheus API directly.
type Metrics struct {
	registry *prometheus.Registry

	queueDepth      *prometheus.GaugeVec
	memoryUsedPages prometheus.Gauge
	suspensions     prometheus.Counter
	preemptions     prometheus.Counter
	terminations    prometheus.Counter
	oomEvents       *prometheus.CounterVec
}

// NewMetrics builds and registers the scheduler's metric set against a
// fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "threesched",
			Name:      "queue_depth",
			Help:      "Number of tasks currently in each logical queue.",
		}, []string{"queue"}),
		memoryUsedPages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "threesched",
			Name:      "memory_used_pages",
			Help:      "Pages currently allocated by the memory manager.",
		}),
		suspensions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threesched",
			Name:      "suspensions_total",
			Help:      "Total number of suspend transitions (ready or blocked).",
		}),
		preemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threesched",
			Name:      "preemptions_total",
			Help:      "Total number of Running tasks preempted by a higher-priority Ready task.",
		}),
		terminations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threesched",
			Name:      "terminations_total",
			Help:      "Total number of tasks that reached the Terminated state.",
		}),
		oomEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threesched",
			Name:      "out_of_memory_total",
			Help:      "Total number of allocation attempts that failed with OutOfMemory, by scheduling pass.",
		}, []string{"pass"}),
	}

	registry.MustRegister(
		m.queueDepth,
		m.memoryUsedPages,
		m.suspensions,
		m.preemptions,
		m.terminations,
		m.oomEvents,
	)
	return m
}

func (m *Metrics) SetQueueDepth(queue string, n int) {
	m.queueDepth.WithLabelValues(queue).Set(float64(n))
}

func (m *Metrics) SetMemoryUsedPages(n uint32) {
	m.memoryUsedPages.Set(float64(n))
}

func (m *Metrics) RecordSuspension() { m.suspensions.Inc() }
func (m *Metrics) RecordPreemption() { m.preemptions.Inc() }
func (m *Metrics) RecordTermination() { m.terminations.Inc() }

func (m *Metrics) RecordOOM(pass string) {
	m.oomEvents.WithLabelValues(pass).Inc()
}

// Registry exposes the underlying Prometheus registry, e.g. for a host
// to serve it over HTTP via promhttp.HandlerFor.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
