package forwarder

import (
	"context"
	"errors"
	"net/http"
	"pipesyslog/internal/config"
	"pipesyslog/internal/forwarder/source"
	"pipesyslog/internal/lifecycle"
	"pipesyslog/internal/metrics"
	"sync"
	"time"
)

type State int

const (
	Uninitialized State = iota
	Running
	ShuttingDown
)

func (state State) String() string {
	switch state {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// Returned by transitions requested from a state that does not allow them
var ErrInvalidTransition = errors.New("invalid transition")

// Process level settings fixed for the daemon lifetime
type Config struct {
	Hostname     string                // default hostname stamped on messages
	MaxLineSize  int                   // longest accepted socket line
	StartupCheck time.Duration         // tail stderr startup watch
	Privileges   lifecycle.Credentials // identity to switch to after startup
	DropDelay    time.Duration         // wait before switching identity

	// Called when the process can no longer run safely (failed privilege drop)
	OnFatal func(err error)
}

type Option func(daemon *Daemon)

// Replaces the protocol client constructor
func WithDial(dial source.DialFunc) Option {
	return func(daemon *Daemon) { daemon.dial = dial }
}

// Uses an existing metric registry
func WithMetrics(registry *metrics.Registry) Option {
	return func(daemon *Daemon) { daemon.Metrics = registry }
}

// Owns the active set of sources and serializes every lifecycle transition
type Daemon struct {
	cfg    Config
	loader config.Loader
	dial   source.DialFunc

	ctx    context.Context // daemon lifetime
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex // serializes transitions
	state    State
	setupCtx context.Context // parent of the active set, reused on reload
	conf     config.File
	active   map[string]*source.Runtime

	privCancel func() bool

	Metrics      *metrics.Registry
	MetricServer *http.Server
}

// Read-only view of the active set
type Snapshot struct {
	State   State
	Sources map[string][]source.SinkState
}
