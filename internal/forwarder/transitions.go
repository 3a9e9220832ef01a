package forwarder

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"pipesyslog/internal/config"
	"pipesyslog/internal/forwarder/source"
	"pipesyslog/internal/global"
	"pipesyslog/internal/lifecycle"
	"pipesyslog/internal/logctx"
	"slices"
)

// Builds the active set from conf. Allowed while no active set exists.
// Per-source and per-channel failures are collected; the remaining sources still start.
func (daemon *Daemon) Setup(ctx context.Context, conf config.File) (errs []error) {
	daemon.mu.Lock()
	defer daemon.mu.Unlock()

	if daemon.state != Uninitialized {
		errs = append(errs, fmt.Errorf("%w: setup while %s", ErrInvalidTransition, daemon.state))
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "%v\n", errs[0])
		return
	}

	daemon.setupCtx = ctx
	errs = daemon.setupLocked(conf)
	daemon.Metrics.Transition("setup", len(errs) > 0)
	return
}

// Must hold mu
func (daemon *Daemon) setupLocked(conf config.File) (errs []error) {
	ctx := daemon.setupCtx

	for _, warning := range conf.Warnings() {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Config: %s\n", warning)
	}

	deps := daemon.sourceDeps(conf)

	// Built aside and swapped in whole
	active := make(map[string]*source.Runtime, len(conf.Sources))
	for _, name := range conf.SourceNames() {
		runtime, sourceErrs := source.New(ctx, name, conf.Sources[name], deps)
		for _, err := range sourceErrs {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Setup: %v\n", err)
		}
		errs = append(errs, sourceErrs...)
		if runtime == nil {
			continue
		}
		active[name] = runtime
	}

	daemon.active = active
	daemon.conf = conf
	daemon.state = Running
	daemon.updateGauges()

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Active set running with %d of %d source(s)\n", len(active), len(conf.Sources))
	return
}

// Closes every channel and client of the active set and returns to Uninitialized
func (daemon *Daemon) Teardown() {
	daemon.mu.Lock()
	defer daemon.mu.Unlock()

	daemon.teardownLocked()
	if daemon.state == Running {
		daemon.state = Uninitialized
	}
	daemon.Metrics.Transition("teardown", false)
}

// Must hold mu
func (daemon *Daemon) teardownLocked() {
	for _, name := range slices.Sorted(maps.Keys(daemon.active)) {
		daemon.active[name].Teardown()
	}
	daemon.active = make(map[string]*source.Runtime)
	daemon.updateGauges()
}

// Respawns every tail channel in the active set. Sockets and clients are left alone.
func (daemon *Daemon) RefreshChannels() (errs []error) {
	daemon.mu.Lock()
	defer daemon.mu.Unlock()

	if daemon.state != Running {
		errs = append(errs, fmt.Errorf("%w: refresh while %s", ErrInvalidTransition, daemon.state))
		return
	}

	for _, name := range slices.Sorted(maps.Keys(daemon.active)) {
		errs = append(errs, daemon.active[name].RefreshTails()...)
	}
	for _, err := range errs {
		logctx.LogEvent(daemon.setupCtx, global.VerbosityStandard, global.ErrorLog, "Refresh: %v\n", err)
	}

	daemon.updateGauges()
	daemon.Metrics.Transition("refresh", len(errs) > 0)
	return
}

// Re-reads the configuration, tears the active set down and builds it again from the new value.
// A failed read leaves the current active set serving untouched.
func (daemon *Daemon) ReloadConfig() (err error) {
	daemon.mu.Lock()
	defer daemon.mu.Unlock()

	if daemon.state != Running {
		err = fmt.Errorf("%w: reload while %s", ErrInvalidTransition, daemon.state)
		return
	}

	ctx := daemon.setupCtx
	notifyErr := lifecycle.NotifyReload(ctx)
	if notifyErr != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify reload failed: %v\n", notifyErr)
	}
	// Ready again whatever the outcome, the old or new set is serving
	defer func() {
		notifyErr := lifecycle.NotifyReady(ctx)
		if notifyErr != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", notifyErr)
		}
		status := fmt.Sprintf("Forwarding %d source(s)", len(daemon.active))
		if err != nil {
			status = "Reload failed, check daemon logs. " + status
		}
		lifecycle.NotifyStatus(ctx, status)
	}()

	conf, err := daemon.loader()
	if err != nil {
		err = fmt.Errorf("reload aborted, keeping current configuration: %v", err)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "%v\n", err)
		daemon.Metrics.Transition("reload", true)
		return
	}

	previous := slices.Collect(maps.Keys(daemon.active))

	daemon.teardownLocked()
	errs := daemon.setupLocked(conf)

	for _, name := range previous {
		_, kept := conf.Sources[name]
		if !kept {
			daemon.Metrics.Forget(name)
		}
	}

	daemon.Metrics.Transition("reload", len(errs) > 0)
	if len(errs) > 0 {
		err = fmt.Errorf("reload applied with %d error(s): %w", len(errs), errors.Join(errs...))
		return
	}
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Reload complete\n")
	return
}

func (daemon *Daemon) State() (state State) {
	daemon.mu.Lock()
	defer daemon.mu.Unlock()
	state = daemon.state
	return
}

// Copy of the active set for observers
func (daemon *Daemon) Active() (snapshot Snapshot) {
	daemon.mu.Lock()
	defer daemon.mu.Unlock()

	snapshot.State = daemon.state
	snapshot.Sources = make(map[string][]source.SinkState, len(daemon.active))
	for name, runtime := range daemon.active {
		snapshot.Sources[name] = runtime.Sinks()
	}
	return
}

// Source names in the snapshot, sorted
func (snapshot Snapshot) Names() (names []string) {
	names = slices.Sorted(maps.Keys(snapshot.Sources))
	return
}

// Must hold mu
func (daemon *Daemon) updateGauges() {
	sinksByKind := make(map[string]int)
	for _, runtime := range daemon.active {
		for _, sink := range runtime.Sinks() {
			if sink.Open {
				sinksByKind[string(sink.Kind)]++
			}
		}
	}
	daemon.Metrics.SetActive(len(daemon.active), sinksByKind)
}
