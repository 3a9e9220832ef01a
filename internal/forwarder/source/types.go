// Runtime of one configured source: its protocol client and the sinks feeding it
package source

import (
	"context"
	"pipesyslog/internal/channel"
	"pipesyslog/internal/client"
	"pipesyslog/internal/config"
	"pipesyslog/internal/metrics"
	"pipesyslog/internal/syslog"
	"sync"
)

// Builds the protocol client of a source
type DialFunc func(ctx context.Context, spec config.SourceSpec, hostname string) (client.Client, error)

// Shared collaborators handed to every runtime
type Deps struct {
	Hostname string
	Channel  channel.Options
	Metrics  *metrics.Registry
	Dial     DialFunc // defaults to client.Dial
}

// One source in the active set. Owns its client and every sink channel exclusively.
type Runtime struct {
	ctx    context.Context
	name   string
	spec   config.SourceSpec
	deps   Deps
	client client.Client

	mu    sync.Mutex // guards sink channels during refresh and teardown
	sinks []*Sink
	down  bool
}

// One sink of a source. Receives lines from its channel and ships them through the source client.
type Sink struct {
	ctx      context.Context
	source   string
	id       string
	spec     config.SinkSpec
	severity syslog.Severity
	client   client.Client
	metrics  *metrics.Registry

	channel channel.Channel // nil while no channel is open
}

// Read-only view of a sink
type SinkState struct {
	ID       string
	Kind     channel.Kind
	Severity syslog.Severity
	Open     bool
}
