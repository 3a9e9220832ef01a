package source

import (
	"pipesyslog/internal/channel"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
)

func (runtime *Runtime) Name() string { return runtime.name }

func (runtime *Runtime) Spec() config.SourceSpec { return runtime.spec }

// Closes every sink channel, then disconnects the client so no channel produces into a closed client
func (runtime *Runtime) Teardown() {
	if runtime == nil {
		return
	}

	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if runtime.down {
		return
	}
	runtime.down = true

	for _, sink := range runtime.sinks {
		sink.close()
	}

	err := runtime.client.Disconnect()
	if err != nil {
		logctx.LogEvent(runtime.ctx, global.VerbosityStandard, global.WarnLog,
			"Failed to disconnect client: %v\n", err)
	}

	logctx.LogEvent(runtime.ctx, global.VerbosityProgress, global.InfoLog, "Source stopped\n")
}

// Replaces every tail channel with a freshly spawned one. Socket channels and the client are untouched.
// Tail sinks whose previous open failed are retried.
func (runtime *Runtime) RefreshTails() (errs []error) {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if runtime.down {
		return
	}

	for _, sink := range runtime.sinks {
		if sink.spec.Channel.Type != config.ChannelTail {
			continue
		}

		sink.close()
		err := runtime.open(sink)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		logctx.LogEvent(sink.ctx, global.VerbosityProgress, global.InfoLog, "Tail restarted\n")
	}
	return
}

// Current state of every sink in configuration order
func (runtime *Runtime) Sinks() (states []SinkState) {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()

	for _, sink := range runtime.sinks {
		state := SinkState{
			ID:       sink.id,
			Kind:     channel.Kind(sink.spec.Channel.Type),
			Severity: sink.severity,
			Open:     sink.channel != nil,
		}
		states = append(states, state)
	}
	return
}

// Must hold runtime mu
func (sink *Sink) close() {
	if sink.channel == nil {
		return
	}
	err := sink.channel.Close()
	if err != nil {
		logctx.LogEvent(sink.ctx, global.VerbosityStandard, global.WarnLog,
			"Failed to close channel: %v\n", err)
	}
	sink.channel = nil
}
