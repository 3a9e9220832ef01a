// Protocol clients shipping forwarded lines to a remote logging endpoint
package client

import (
	"errors"
	"pipesyslog/internal/syslog"
)

// Returned by Log after Disconnect
var ErrDisconnected = errors.New("client disconnected")

// Connection to one remote endpoint, exclusively owned by one source.
// Log is safe for concurrent use.
type Client interface {
	Log(line string, severity syslog.Severity) (err error)
	Disconnect() (err error)
	Describe() string
}

// Static identity stamped on every message
type identity struct {
	hostname string
	tag      string
	facility uint16
	pid      int
}
