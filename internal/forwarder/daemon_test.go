package forwarder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"pipesyslog/internal/client"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"pipesyslog/internal/syslog"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type logCall struct {
	line     string
	severity syslog.Severity
}

type fakeClient struct {
	mu           sync.Mutex
	calls        []logCall
	disconnected bool
}

func (fake *fakeClient) Log(line string, severity syslog.Severity) (err error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.disconnected {
		err = client.ErrDisconnected
		return
	}
	fake.calls = append(fake.calls, logCall{line, severity})
	return
}

func (fake *fakeClient) Disconnect() (err error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.disconnected = true
	return
}

func (fake *fakeClient) Describe() string { return "fake" }

func (fake *fakeClient) snapshot() []logCall {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return append([]logCall(nil), fake.calls...)
}

func (fake *fakeClient) isDisconnected() bool {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.disconnected
}

func (fake *fakeClient) waitFor(t *testing.T, n int) []logCall {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if calls := fake.snapshot(); len(calls) >= n {
			return calls
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d calls, have %v", n, fake.snapshot())
	return nil
}

// Waits until line was forwarded, ignoring anything else that arrived
func (fake *fakeClient) waitForLine(t *testing.T, line string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, call := range fake.snapshot() {
			if call.line == line {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("line %q never forwarded, have %v", line, fake.snapshot())
}

// Hands out one fake client per dial, keyed by the source tag
type clientHub struct {
	mu      sync.Mutex
	clients map[string][]*fakeClient
}

func (hub *clientHub) dial(ctx context.Context, spec config.SourceSpec, hostname string) (client.Client, error) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	fake := &fakeClient{}
	hub.clients[spec.Tag] = append(hub.clients[spec.Tag], fake)
	return fake, nil
}

// Most recent client created for a source
func (hub *clientHub) latest(t *testing.T, tag string) *fakeClient {
	t.Helper()
	hub.mu.Lock()
	defer hub.mu.Unlock()
	list := hub.clients[tag]
	if len(list) == 0 {
		t.Fatalf("no client created for %s", tag)
	}
	return list[len(list)-1]
}

type swappableLoader struct {
	mu   sync.Mutex
	conf config.File
	err  error
}

func (loader *swappableLoader) set(conf config.File, err error) {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	loader.conf, loader.err = conf, err
}

func (loader *swappableLoader) load() (config.File, error) {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	return loader.conf, loader.err
}

type fixture struct {
	ctx    context.Context
	hub    *clientHub
	loader *swappableLoader
	daemon *Daemon
}

func newFixture(t *testing.T) (fix fixture) {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	fix.ctx = logctx.New(context.Background(), global.NSTest, global.VerbosityDebug, done)
	fix.hub = &clientHub{clients: make(map[string][]*fakeClient)}
	fix.loader = &swappableLoader{}
	fix.daemon = NewDaemon(Config{Hostname: "testhost", StartupCheck: 200 * time.Millisecond}, fix.loader.load, WithDial(fix.hub.dial))
	t.Cleanup(fix.daemon.Shutdown)
	return
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}

func portFree(port int) bool {
	listener, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

func send(t *testing.T, port int, payload string) {
	t.Helper()
	conn, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	fmt.Fprint(conn, payload)
}

func socketSource(tag string, level string, sinks ...config.SinkSpec) config.SourceSpec {
	return config.SourceSpec{Server: "127.0.0.1", Port: 5514, Tag: tag, Level: level, Sinks: sinks}
}

func socketSink(port int, level string) config.SinkSpec {
	return config.SinkSpec{
		Channel: config.ChannelSpec{Type: config.ChannelSocket, Address: "127.0.0.1", Port: port},
		Level:   level,
	}
}

func tailSink(path string) config.SinkSpec {
	return config.SinkSpec{Channel: config.ChannelSpec{Type: config.ChannelTail, File: path}}
}

func appendTo(t *testing.T, path string, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	f.WriteString(content)
}

func TestSetup_SingleSocketLine(t *testing.T) {
	fix := newFixture(t)
	port := freePort(t)

	conf := config.File{Sources: map[string]config.SourceSpec{
		"app": socketSource("app", "", socketSink(port, "")),
	}}
	if errs := fix.daemon.Setup(fix.ctx, conf); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if fix.daemon.State() != Running {
		t.Fatalf("expected running, got %s", fix.daemon.State())
	}

	send(t, port, "hello\n")

	fake := fix.hub.latest(t, "app")
	fake.waitFor(t, 1)
	time.Sleep(50 * time.Millisecond)
	calls := fake.snapshot()
	if len(calls) != 1 || calls[0] != (logCall{"hello", syslog.Info}) {
		t.Fatalf("expected one info call for hello, got %v", calls)
	}
}

func TestSetup_SinkLevelOverridesSource(t *testing.T) {
	fix := newFixture(t)
	port := freePort(t)

	conf := config.File{Sources: map[string]config.SourceSpec{
		"app": socketSource("app", "debug", socketSink(port, "error")),
	}}
	fix.daemon.Setup(fix.ctx, conf)

	send(t, port, "failure\n")
	calls := fix.hub.latest(t, "app").waitFor(t, 1)
	if calls[0].severity != syslog.Error {
		t.Fatalf("expected error severity, got %s", calls[0].severity)
	}
}

func TestSetup_PartialFailureKeepsOtherSources(t *testing.T) {
	fix := newFixture(t)

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer taken.Close()
	busy := taken.Addr().(*net.TCPAddr).Port
	good := freePort(t)

	conf := config.File{Sources: map[string]config.SourceSpec{
		"broken": socketSource("broken", "", socketSink(busy, "")),
		"good":   socketSource("good", "", socketSink(good, "")),
	}}
	errs := fix.daemon.Setup(fix.ctx, conf)
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}

	snapshot := fix.daemon.Active()
	if !reflect.DeepEqual(snapshot.Names(), []string{"broken", "good"}) {
		t.Fatalf("unexpected sources %v", snapshot.Names())
	}
	if snapshot.Sources["broken"][0].Open || !snapshot.Sources["good"][0].Open {
		t.Fatalf("unexpected sink states %+v", snapshot.Sources)
	}

	send(t, good, "ok\n")
	fix.hub.latest(t, "good").waitFor(t, 1)
}

func TestSetupTeardown_ReleasesResources(t *testing.T) {
	fix := newFixture(t)
	ports := []int{freePort(t), freePort(t)}
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, "")

	conf := config.File{Sources: map[string]config.SourceSpec{
		"one": socketSource("one", "", socketSink(ports[0], ""), tailSink(path)),
		"two": socketSource("two", "", socketSink(ports[1], "")),
	}}
	if errs := fix.daemon.Setup(fix.ctx, conf); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	fix.daemon.Teardown()

	for _, port := range ports {
		if !portFree(port) {
			t.Fatalf("port %d still bound after teardown", port)
		}
	}
	for _, tag := range []string{"one", "two"} {
		if !fix.hub.latest(t, tag).isDisconnected() {
			t.Fatalf("client of %s still connected", tag)
		}
	}
	snapshot := fix.daemon.Active()
	if len(snapshot.Sources) != 0 || snapshot.State != Uninitialized {
		t.Fatalf("unexpected snapshot after teardown %+v", snapshot)
	}

	// Setup is allowed again after teardown
	if errs := fix.daemon.Setup(fix.ctx, conf); len(errs) > 0 {
		t.Fatalf("unexpected errors on second setup: %v", errs)
	}
}

func TestRefreshChannels_RestartsTailsOnly(t *testing.T) {
	fix := newFixture(t)
	port := freePort(t)
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, "existing\n")

	conf := config.File{Sources: map[string]config.SourceSpec{
		"app": socketSource("app", "", socketSink(port, ""), tailSink(path)),
	}}
	if errs := fix.daemon.Setup(fix.ctx, conf); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fake := fix.hub.latest(t, "app")

	conn, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Rotation: truncate and rewrite, then refresh
	os.WriteFile(path, []byte("rewritten before refresh\n"), 0600)
	if errs := fix.daemon.RefreshChannels(); len(errs) > 0 {
		t.Fatalf("unexpected refresh errors: %v", errs)
	}
	if errs := fix.daemon.RefreshChannels(); len(errs) > 0 {
		t.Fatalf("repeated refresh failed: %v", errs)
	}

	time.Sleep(300 * time.Millisecond)
	appendTo(t, path, "after refresh\n")

	fake.waitForLine(t, "after refresh")

	// Same client, same socket connection still forwarding
	if fake.isDisconnected() || fix.hub.latest(t, "app") != fake {
		t.Fatalf("refresh disturbed the client")
	}
	fmt.Fprint(conn, "socket still alive\n")
	fake.waitForLine(t, "socket still alive")
}

func TestReloadConfig_ReplacesActiveSet(t *testing.T) {
	fix := newFixture(t)
	removedPort, keptPort, addedPort := freePort(t), freePort(t), freePort(t)

	initial := config.File{Sources: map[string]config.SourceSpec{
		"removed": socketSource("removed", "", socketSink(removedPort, "")),
		"kept":    socketSource("kept", "", socketSink(keptPort, "")),
	}}
	fix.loader.set(initial, nil)
	if err := fix.daemon.Start(fix.ctx); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	oldRemoved := fix.hub.latest(t, "removed")
	oldKept := fix.hub.latest(t, "kept")

	next := config.File{Sources: map[string]config.SourceSpec{
		"kept":  socketSource("kept", "warn", socketSink(keptPort, "")),
		"added": socketSource("added", "", socketSink(addedPort, "")),
	}}
	fix.loader.set(next, nil)
	if err := fix.daemon.ReloadConfig(); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}

	snapshot := fix.daemon.Active()
	if !reflect.DeepEqual(snapshot.Names(), []string{"added", "kept"}) {
		t.Fatalf("active set does not match new configuration: %v", snapshot.Names())
	}

	// Removed source is fully gone
	if !oldRemoved.isDisconnected() {
		t.Fatalf("removed source client still connected")
	}
	if !portFree(removedPort) {
		t.Fatalf("removed source still listening")
	}

	// Kept source was rebuilt, not reused
	if !oldKept.isDisconnected() {
		t.Fatalf("old client of kept source survived reload")
	}
	newKept := fix.hub.latest(t, "kept")
	if newKept == oldKept {
		t.Fatalf("kept source reused its old client")
	}

	send(t, keptPort, "after reload\n")
	calls := newKept.waitFor(t, 1)
	if calls[0].severity != syslog.Warn {
		t.Fatalf("new configuration level not applied: %v", calls)
	}
	if len(oldKept.snapshot()) != 0 || len(oldRemoved.snapshot()) != 0 {
		t.Fatalf("lines reached clients of the previous generation")
	}
}

func TestReloadConfig_FailedLoadKeepsActiveSet(t *testing.T) {
	fix := newFixture(t)
	port := freePort(t)

	fix.loader.set(config.File{Sources: map[string]config.SourceSpec{
		"app": socketSource("app", "", socketSink(port, "")),
	}}, nil)
	if err := fix.daemon.Start(fix.ctx); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	fake := fix.hub.latest(t, "app")

	fix.loader.set(config.File{}, errors.New("syntax error"))
	if err := fix.daemon.ReloadConfig(); err == nil {
		t.Fatalf("expected reload error")
	}

	if fix.daemon.State() != Running {
		t.Fatalf("expected running after failed reload, got %s", fix.daemon.State())
	}
	if fake.isDisconnected() || fix.hub.latest(t, "app") != fake {
		t.Fatalf("failed reload touched the active set")
	}
	send(t, port, "still served\n")
	fake.waitFor(t, 1)
}

func TestTransitions_InvalidStates(t *testing.T) {
	fix := newFixture(t)

	if errs := fix.daemon.RefreshChannels(); len(errs) != 1 || !errors.Is(errs[0], ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for refresh before setup, got %v", errs)
	}
	if err := fix.daemon.ReloadConfig(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for reload before setup, got %v", err)
	}

	conf := config.File{Sources: map[string]config.SourceSpec{
		"app": socketSource("app", "", socketSink(freePort(t), "")),
	}}
	fix.daemon.Setup(fix.ctx, conf)
	if errs := fix.daemon.Setup(fix.ctx, conf); len(errs) != 1 || !errors.Is(errs[0], ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for second setup, got %v", errs)
	}

	finished := make(chan struct{})
	go func() {
		fix.daemon.Run()
		close(finished)
	}()

	fix.daemon.Shutdown()
	fix.daemon.Shutdown()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after shutdown")
	}
	if fix.daemon.State() != ShuttingDown {
		t.Fatalf("expected shutting down, got %s", fix.daemon.State())
	}
	if !fix.hub.latest(t, "app").isDisconnected() {
		t.Fatalf("shutdown left client connected")
	}
	if errs := fix.daemon.Setup(fix.ctx, conf); len(errs) != 1 {
		t.Fatalf("setup after shutdown must be refused")
	}
	if err := fix.daemon.ReloadConfig(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reload after shutdown must be refused, got %v", err)
	}
}

func TestStart_LoadFailure(t *testing.T) {
	fix := newFixture(t)
	fix.loader.set(config.File{}, errors.New("missing file"))

	if err := fix.daemon.Start(fix.ctx); err == nil {
		t.Fatalf("expected start error")
	}
	if fix.daemon.State() != Uninitialized {
		t.Fatalf("expected uninitialized, got %s", fix.daemon.State())
	}
}

func TestStart_MetricServer(t *testing.T) {
	fix := newFixture(t)
	listen := "127.0.0.1:" + strconv.Itoa(freePort(t))

	fix.loader.set(config.File{
		Sources: map[string]config.SourceSpec{},
		Metrics: config.MetricConf{Enabled: true, Listen: listen},
	}, nil)
	if err := fix.daemon.Start(fix.ctx); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", listen)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("metric server not listening on %s", listen)
		}
		time.Sleep(20 * time.Millisecond)
	}

	fix.daemon.Shutdown()
	if !portFree(freePortOf(listen)) {
		t.Fatalf("metric server still listening after shutdown")
	}
}

func freePortOf(addr string) int {
	_, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)
	return port
}

func TestSetup_OrderPreservedPerChannelAcrossSources(t *testing.T) {
	fix := newFixture(t)
	alphaFirst, alphaSecond, beta := freePort(t), freePort(t), freePort(t)

	conf := config.File{Sources: map[string]config.SourceSpec{
		"alpha": socketSource("alpha", "", socketSink(alphaFirst, ""), socketSink(alphaSecond, "")),
		"beta":  socketSource("beta", "", socketSink(beta, "")),
	}}
	if errs := fix.daemon.Setup(fix.ctx, conf); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	const perChannel = 50
	channels := map[string]int{"a1": alphaFirst, "a2": alphaSecond, "b": beta}

	// All three channels write at the same time
	var writers sync.WaitGroup
	for prefix, port := range channels {
		writers.Add(1)
		go func() {
			defer writers.Done()
			conn, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
			if err != nil {
				t.Errorf("dial failed: %v", err)
				return
			}
			defer conn.Close()
			for index := range perChannel {
				fmt.Fprintf(conn, "%s-%d\n", prefix, index)
			}
		}()
	}
	writers.Wait()

	tests := []struct {
		source   string
		prefixes []string
	}{
		{source: "alpha", prefixes: []string{"a1", "a2"}},
		{source: "beta", prefixes: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			calls := fix.hub.latest(t, tt.source).waitFor(t, perChannel*len(tt.prefixes))

			// Only the order within one channel is guaranteed
			next := make(map[string]int)
			for _, call := range calls {
				prefix, indexText, ok := strings.Cut(call.line, "-")
				if !ok || !slices.Contains(tt.prefixes, prefix) {
					t.Fatalf("source %s received foreign line %q", tt.source, call.line)
				}
				index, err := strconv.Atoi(indexText)
				if err != nil {
					t.Fatalf("malformed line %q", call.line)
				}
				if index != next[prefix] {
					t.Fatalf("channel %s out of order: expected %d, got %d", prefix, next[prefix], index)
				}
				next[prefix]++
			}
			for _, prefix := range tt.prefixes {
				if next[prefix] != perChannel {
					t.Fatalf("channel %s delivered %d of %d lines", prefix, next[prefix], perChannel)
				}
			}
		})
	}
}
