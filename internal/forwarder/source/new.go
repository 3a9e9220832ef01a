package source

import (
	"context"
	"fmt"
	"pipesyslog/internal/channel"
	"pipesyslog/internal/client"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"pipesyslog/internal/syslog"
)

// Connects the source client then opens one channel per sink.
// A client failure omits the whole source (nil runtime). Channel failures are
// returned but leave the remaining sinks running.
func New(ctx context.Context, name string, spec config.SourceSpec, deps Deps) (runtime *Runtime, errs []error) {
	ctx = logctx.AppendCtxTag(ctx, global.NSSource)
	ctx = logctx.AppendCtxTag(ctx, name)

	if deps.Dial == nil {
		deps.Dial = client.Dial
	}
	if deps.Hostname == "" {
		deps.Hostname = global.Hostname
	}

	clientCtx := logctx.AppendCtxTag(ctx, global.NSClient)
	protoClient, err := deps.Dial(clientCtx, spec, deps.Hostname)
	if err != nil {
		errs = append(errs, fmt.Errorf("source '%s': failed to create client: %v", name, err))
		return
	}

	runtime = &Runtime{
		ctx:    ctx,
		name:   name,
		spec:   spec,
		deps:   deps,
		client: protoClient,
	}

	for _, sinkSpec := range spec.AllSinks() {
		sink := &Sink{
			source:   name,
			id:       sinkSpec.Channel.String(),
			spec:     sinkSpec,
			severity: syslog.Resolve(spec, sinkSpec),
			client:   protoClient,
			metrics:  deps.Metrics,
		}
		sink.ctx = logctx.AppendCtxTag(logctx.AppendCtxTag(ctx, global.NSSink), sink.id)
		runtime.sinks = append(runtime.sinks, sink)

		err = runtime.open(sink)
		if err != nil {
			errs = append(errs, err)
		}
	}

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Source started: %d sink(s) forwarding to %s\n", len(runtime.sinks), protoClient.Describe())
	return
}

// Builds and opens a fresh channel for the sink. Must hold mu (or own the runtime exclusively).
func (runtime *Runtime) open(sink *Sink) (err error) {
	ch, err := channel.New(sink.spec.Channel, runtime.deps.Channel)
	if err != nil {
		err = fmt.Errorf("source '%s' sink %s: %v", runtime.name, sink.id, err)
		return
	}

	err = ch.Open(sink.ctx, sink)
	if err != nil {
		runtime.deps.Metrics.ChannelOpenFailed(string(ch.Kind()))
		logctx.LogEvent(sink.ctx, global.VerbosityStandard, global.ErrorLog,
			"Failed to open channel: %v\n", err)
		err = fmt.Errorf("source '%s' sink %s: %v", runtime.name, sink.id, err)
		return
	}

	sink.channel = ch
	return
}
