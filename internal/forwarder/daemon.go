// Daemon multiplexing configured input channels into their sources' remote endpoints
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"pipesyslog/internal/config"
	"pipesyslog/internal/forwarder/source"
	"pipesyslog/internal/global"
	"pipesyslog/internal/lifecycle"
	"pipesyslog/internal/logctx"
	"pipesyslog/internal/metrics"
	"time"
)

// Create new forwarder daemon instance. Nothing runs until Start or Setup.
func NewDaemon(cfg Config, loader config.Loader, opts ...Option) (new *Daemon) {
	cfg.setDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:    cfg,
		loader: loader,
		ctx:    ctx,
		cancel: cancel,
		state:  Uninitialized,
		active: make(map[string]*source.Runtime),
	}
	for _, opt := range opts {
		opt(new)
	}
	if new.Metrics == nil {
		new.Metrics = metrics.New()
	}
	return
}

// Loads the configuration, builds the first active set and starts the metric server.
// Channel failures are logged and leave a partial active set; only a failed load returns an error.
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	// New context for the daemon carrying the program logger
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSForwarder)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	conf, err := daemon.loader()
	if err != nil {
		err = fmt.Errorf("failed to load configuration: %v", err)
		return
	}

	errs := daemon.Setup(daemon.ctx, conf)
	if len(errs) > 0 {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.ErrorLog,
			"Startup completed with %d error(s), continuing with partial active set\n", len(errs))
	}

	// Metric Server (settings are read once at startup)
	if conf.Metrics.Enabled {
		serverCtx := logctx.AppendCtxTag(daemon.ctx, global.NSMetric)
		serverCtx = logctx.AppendCtxTag(serverCtx, global.NSMetricSrv)

		daemon.MetricServer = metrics.SetupListener(serverCtx, conf.Metrics.Listen, daemon.Metrics)
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			metrics.Start(serverCtx, daemon.MetricServer)
		}()
	}

	daemon.notifyReady(daemon.ctx)

	daemon.privCancel = lifecycle.ScheduleDrop(daemon.ctx, daemon.cfg.DropDelay, daemon.cfg.Privileges, daemon.fatal)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Startup complete.\n")
	return
}

// Blocking daemon waiter
func (daemon *Daemon) Run() {
	<-daemon.ctx.Done()
}

// Tears down every source and stops background servers. Terminal; later transitions are refused.
func (daemon *Daemon) Shutdown() {
	daemon.mu.Lock()
	if daemon.state == ShuttingDown {
		daemon.mu.Unlock()
		return
	}
	daemon.state = ShuttingDown

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")
	err := lifecycle.NotifyStopping(daemon.ctx)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
	}

	if daemon.privCancel != nil {
		daemon.privCancel()
	}

	daemon.teardownLocked()
	daemon.Metrics.Transition("shutdown", false)
	daemon.mu.Unlock()

	// Stop metric server
	if daemon.MetricServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := daemon.MetricServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"metric HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	// Stop the run loop after sources are torn down
	daemon.cancel()
	daemon.wg.Wait()

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown completed successfully\n")
}

func (daemon *Daemon) fatal(err error) {
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.ErrorLog, "Fatal: %v\n", err)
	if daemon.cfg.OnFatal != nil {
		daemon.cfg.OnFatal(err)
	}
}

func (daemon *Daemon) notifyReady(ctx context.Context) {
	err := lifecycle.NotifyReady(ctx)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
	}
	err = lifecycle.NotifyStatus(ctx, daemon.statusLine())
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify status failed: %v\n", err)
	}
}

func (daemon *Daemon) statusLine() string {
	daemon.mu.Lock()
	defer daemon.mu.Unlock()
	return fmt.Sprintf("Forwarding %d source(s)", len(daemon.active))
}
