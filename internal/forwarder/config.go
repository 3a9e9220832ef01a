package forwarder

import (
	"os"
	"pipesyslog/internal/channel"
	"pipesyslog/internal/config"
	"pipesyslog/internal/forwarder/source"
	"pipesyslog/internal/global"
)

func (cfg *Config) setDefaults() {
	if cfg.Hostname == "" {
		cfg.Hostname = global.Hostname
	}
	if cfg.Hostname == "" {
		cfg.Hostname, _ = os.Hostname()
	}
	if cfg.MaxLineSize <= 0 {
		cfg.MaxLineSize = global.DefaultMaxLineSize
	}
	if cfg.StartupCheck <= 0 {
		cfg.StartupCheck = global.TailStartupCheckDelay
	}
	if cfg.DropDelay <= 0 {
		cfg.DropDelay = global.PrivilegeDropDelay
	}
}

// Collaborators for one generation of the active set. Tail command follows the loaded file.
func (daemon *Daemon) sourceDeps(conf config.File) (deps source.Deps) {
	deps = source.Deps{
		Hostname: daemon.cfg.Hostname,
		Channel: channel.Options{
			TailCommand:  conf.Tail.Command,
			MaxLineSize:  daemon.cfg.MaxLineSize,
			StartupCheck: daemon.cfg.StartupCheck,
		},
		Metrics: daemon.Metrics,
		Dial:    daemon.dial,
	}
	return
}
