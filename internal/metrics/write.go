package metrics

import "github.com/prometheus/client_golang/prometheus"

func (registry *Registry) LineReceived(source, sink string) {
	if registry == nil {
		return
	}
	registry.linesReceived.WithLabelValues(source, sink).Inc()
}

func (registry *Registry) LineForwarded(source, sink string) {
	if registry == nil {
		return
	}
	registry.linesForwarded.WithLabelValues(source, sink).Inc()
}

func (registry *Registry) LineDropped(source, sink string) {
	if registry == nil {
		return
	}
	registry.linesDropped.WithLabelValues(source, sink).Inc()
}

func (registry *Registry) ChannelOpenFailed(kind string) {
	if registry == nil {
		return
	}
	registry.openFailures.WithLabelValues(kind).Inc()
}

// Records one lifecycle transition (setup, refresh, reload, shutdown)
func (registry *Registry) Transition(name string, failed bool) {
	if registry == nil {
		return
	}
	result := ResultOK
	if failed {
		result = ResultFailed
	}
	registry.transitions.WithLabelValues(name, result).Inc()
}

// Replaces the active set gauges. Kinds missing from sinksByKind are reset to zero.
func (registry *Registry) SetActive(sources int, sinksByKind map[string]int) {
	if registry == nil {
		return
	}
	registry.activeSources.Set(float64(sources))
	registry.activeSinks.Reset()
	for kind, count := range sinksByKind {
		registry.activeSinks.WithLabelValues(kind).Set(float64(count))
	}
}

// Drops line series of a source that left the active set
func (registry *Registry) Forget(source string) {
	if registry == nil {
		return
	}
	labels := prometheus.Labels{"source": source}
	registry.linesReceived.DeletePartialMatch(labels)
	registry.linesForwarded.DeletePartialMatch(labels)
	registry.linesDropped.DeletePartialMatch(labels)
}
