// Prometheus instrumentation for forwarded lines, channels and lifecycle transitions
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace string = "pipesyslog"

// Owns every collector the daemon exports. A nil *Registry records nothing.
type Registry struct {
	registry *prometheus.Registry

	linesReceived  *prometheus.CounterVec
	linesForwarded *prometheus.CounterVec
	linesDropped   *prometheus.CounterVec
	openFailures   *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	activeSources  prometheus.Gauge
	activeSinks    *prometheus.GaugeVec
}

// Label values for transition results
const (
	ResultOK     string = "ok"
	ResultFailed string = "failed"
)
