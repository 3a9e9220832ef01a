package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Creates new metric registry with all daemon collectors registered.
// Go runtime collectors are left out, only forwarding state is exported.
func New() (new *Registry) {
	lineLabels := []string{"source", "sink"}

	new = &Registry{
		registry: prometheus.NewRegistry(),
		linesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_received_total",
			Help:      "Lines produced by input channels.",
		}, lineLabels),
		linesForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_forwarded_total",
			Help:      "Lines handed to the remote endpoint without error.",
		}, lineLabels),
		linesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Lines dropped because the remote endpoint could not take them.",
		}, lineLabels),
		openFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_open_failures_total",
			Help:      "Input channels that failed to bind or spawn.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Lifecycle transitions by name and result.",
		}, []string{"transition", "result"}),
		activeSources: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sources",
			Help:      "Sources in the active set.",
		}),
		activeSinks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sinks",
			Help:      "Sinks with an open channel in the active set.",
		}, []string{"kind"}),
	}

	new.registry.MustRegister(
		new.linesReceived,
		new.linesForwarded,
		new.linesDropped,
		new.openFailures,
		new.transitions,
		new.activeSources,
		new.activeSinks,
	)
	return
}

// Exposes the underlying registry for exposition
func (registry *Registry) Gatherer() (gatherer prometheus.Gatherer) {
	if registry == nil {
		return prometheus.NewRegistry()
	}
	return registry.registry
}
