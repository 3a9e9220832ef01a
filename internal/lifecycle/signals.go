package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"syscall"
)

// Transitions reachable from outside the process
type DaemonLike interface {
	RefreshChannels() (errs []error)
	ReloadConfig() (err error)
	Shutdown()
}

// Signals the handler subscribes to
var handledSignals = []os.Signal{
	syscall.SIGUSR1, // refresh tails
	syscall.SIGUSR2, // full reload
	syscall.SIGHUP,  // full reload (systemd convention)
	syscall.SIGTERM,
	syscall.SIGINT,
}

// Captured control signals. Subscribing before startup keeps early signals
// from reaching the default action (which terminates on USR1/USR2/HUP).
type Subscription struct {
	signals chan os.Signal
}

func Subscribe() (sub *Subscription) {
	sub = &Subscription{signals: make(chan os.Signal, 10)}
	signal.Notify(sub.signals, handledSignals...)
	return
}

// Detaches the subscription. Signals arriving afterwards get default handling.
func (sub *Subscription) Stop() {
	signal.Stop(sub.signals)
}

// Handles all incoming control signals until a terminating signal arrives or ctx ends.
// The subscription is detached before returning.
func SignalHandler(ctx context.Context, daemonManager DaemonLike) {
	Subscribe().Handle(ctx, daemonManager)
}

// Runs transitions for captured signals, including any queued before the call.
// The subscription is detached before returning.
func (sub *Subscription) Handle(ctx context.Context, daemonManager DaemonLike) {
	ctx = logctx.AppendCtxTag(ctx, global.NSSignal)
	defer sub.Stop()

	for {
		var sig os.Signal
		select {
		case <-ctx.Done():
			return
		case sig = <-sub.signals:
		}

		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)

		if HandleSignal(ctx, daemonManager, sig) {
			return
		}
	}
}

// Runs the transition bound to sig. Returns true once the daemon has been shut down.
func HandleSignal(ctx context.Context, daemonManager DaemonLike, sig os.Signal) (stopped bool) {
	recvSignal, ok := sig.(syscall.Signal)
	if !ok {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed to type assert received signal: %v\n", sig)
		return
	}

	switch recvSignal {
	case syscall.SIGUSR1:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Refreshing tail channels...\n")
		errs := daemonManager.RefreshChannels()
		if len(errs) > 0 {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"Refresh completed with %d error(s): %v\n", len(errs), errors.Join(errs...))
		}
	case syscall.SIGUSR2, syscall.SIGHUP:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Beginning reload...\n")
		err := daemonManager.ReloadConfig()
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Reload Error: %v\n", err)
		}
	case syscall.SIGTERM, syscall.SIGINT:
		daemonManager.Shutdown()
		stopped = true
	default:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Ignoring unhandled signal: %v\n", sig)
	}
	return
}
