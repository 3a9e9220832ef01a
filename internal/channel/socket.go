package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"pipesyslog/internal/network"
	"runtime/debug"
	"strconv"
	"sync"
	"time"
)

// Listening TCP socket. Every accepted connection is an independent newline delimited stream.
type Socket struct {
	gate
	addr        string
	port        int
	maxLineSize int

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	stop     func() bool
}

func (socket *Socket) Kind() Kind { return KindSocket }

func (socket *Socket) Describe() string { return string(KindSocket) + ":" + strconv.Itoa(socket.port) }

// Bound listener address (resolves port 0 after Open)
func (socket *Socket) Addr() (addr net.Addr) {
	socket.mu.Lock()
	defer socket.mu.Unlock()
	if socket.listener != nil {
		addr = socket.listener.Addr()
	}
	return
}

// Binds the listen address and starts accepting connections in the background
func (socket *Socket) Open(ctx context.Context, fwd Forwarder) (err error) {
	if socket.isClosed() {
		err = fmt.Errorf("socket channel %s already closed", socket.addr)
		return
	}

	listener, err := network.ListenTCP(ctx, socket.addr)
	if err != nil {
		return
	}

	// Channel ends with the context that opened it
	socket.mu.Lock()
	socket.listener = listener
	socket.stop = context.AfterFunc(ctx, func() { socket.Close() })
	socket.mu.Unlock()

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Listening for lines on %s\n", listener.Addr())

	go socket.acceptLoop(ctx, listener, fwd)
	return
}

// Stops accepting, releases the listener and drops accepted connections without waiting on them
func (socket *Socket) Close() (err error) {
	if socket.shut() {
		return
	}

	socket.mu.Lock()
	defer socket.mu.Unlock()

	if socket.stop != nil {
		socket.stop()
	}
	if socket.listener != nil {
		err = socket.listener.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}
	for conn := range socket.conns {
		conn.Close()
	}
	clear(socket.conns)
	return
}

// Number of accepted connections still open
func (socket *Socket) Connections() (count int) {
	socket.mu.Lock()
	defer socket.mu.Unlock()
	count = len(socket.conns)
	return
}

func (socket *Socket) acceptLoop(ctx context.Context, listener net.Listener, fwd Forwarder) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if socket.isClosed() || errors.Is(err, net.ErrClosed) {
				return
			}
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"failed to accept connection: %v\n", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !socket.track(conn) {
			conn.Close()
			return
		}

		go socket.serve(ctx, conn, fwd)
	}
}

// Registers conn for Close. Returns false if the channel closed meanwhile.
func (socket *Socket) track(conn net.Conn) (tracked bool) {
	socket.mu.Lock()
	defer socket.mu.Unlock()
	if socket.isClosed() {
		return
	}
	socket.conns[conn] = struct{}{}
	tracked = true
	return
}

func (socket *Socket) untrack(conn net.Conn) {
	socket.mu.Lock()
	defer socket.mu.Unlock()
	delete(socket.conns, conn)
}

// Reads one connection line by line until it ends or the channel closes
func (socket *Socket) serve(ctx context.Context, conn net.Conn, fwd Forwarder) {
	defer socket.untrack(conn)
	defer conn.Close()

	// Record panics and continue working
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in connection reader for %s: %v\n%s", conn.RemoteAddr(), fatalError, stack)
		}
	}()

	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"Accepted connection from %s\n", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	// Scanner limit is the larger of max and the initial capacity
	scanner.Buffer(make([]byte, 0, min(4096, socket.maxLineSize)), socket.maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !socket.forward(fwd, line) {
			return
		}
	}

	err := scanner.Err()
	if err == nil || socket.isClosed() {
		return
	}
	if errors.Is(err, bufio.ErrTooLong) {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"dropping connection from %s: line exceeds %d bytes\n", conn.RemoteAddr(), socket.maxLineSize)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
		"connection from %s ended: %v\n", conn.RemoteAddr(), err)
}
