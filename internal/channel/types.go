// Line producing input channels: listening sockets and tailed files
package channel

import (
	"context"
	"sync"
	"time"
)

type Kind string

const (
	KindSocket Kind = "socket"
	KindTail   Kind = "tail"
)

// Receives every complete line a channel produces, in order per connection/process
type Forwarder interface {
	Forward(line string)
}

// One live input. Open starts producing lines into the forwarder, Close stops it.
// A channel is not reusable after Close; build a new one from its spec instead.
type Channel interface {
	Open(ctx context.Context, fwd Forwarder) (err error)
	Close() (err error)
	Kind() Kind
	Describe() string
}

type Options struct {
	TailCommand  string        // binary used for tail channels
	MaxLineSize  int           // longest accepted socket line in bytes
	StartupCheck time.Duration // how long to watch tail stderr for startup failures
}

// Stops forwarding once the channel is closed. Close waits only for forwards already in flight.
type gate struct {
	mu     sync.RWMutex
	closed bool
}

func (g *gate) forward(fwd Forwarder, line string) (sent bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return
	}
	fwd.Forward(line)
	sent = true
	return
}

func (g *gate) shut() (alreadyClosed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	alreadyClosed = g.closed
	g.closed = true
	return
}

func (g *gate) isClosed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closed
}
