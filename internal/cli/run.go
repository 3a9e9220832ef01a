package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"pipesyslog/internal/config"
	"pipesyslog/internal/forwarder"
	"pipesyslog/internal/global"
	"pipesyslog/internal/lifecycle"
	"pipesyslog/internal/logctx"
)

// Runs the forwarder daemon in the foreground until a terminating signal
func RunMode(ctx context.Context, commandname string, args []string) {
	var configPath string
	var creds lifecycle.Credentials
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath)
	SetPrivilegeArguments(commandFlags, &creds)

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
	}
	commandFlags.Parse(args[0:])

	// Command line verbosity wins over the file
	verbosityGiven := flagGiven(commandFlags, "v", "verbosity")
	logctx.SetLogLevel(ctx, global.Verbosity)

	loader := config.FileLoader(configPath)
	if !verbosityGiven {
		loader = withFileLogLevel(ctx, loader)
	}

	daemonConfig := forwarder.Config{
		Hostname:   global.Hostname,
		Privileges: creds,
		OnFatal: func(err error) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			logger := logctx.GetLogger(ctx)
			if logger != nil {
				logger.Wake()
			}
			os.Exit(1)
		},
	}

	// Capture control signals before startup, they are handled once Start returns
	signals := lifecycle.Subscribe()

	daemon := forwarder.NewDaemon(daemonConfig, loader)
	err := daemon.Start(ctx)
	if err != nil {
		signals.Stop()
		fmt.Fprintf(os.Stderr, "Error starting forwarder daemon: %v\n", err)
		os.Exit(1)
	}

	go signals.Handle(ctx, daemon)

	daemon.Run()
}

// Applies the file's logging.logLevel (0 included) on every successful load
func withFileLogLevel(ctx context.Context, loader config.Loader) config.Loader {
	return func() (conf config.File, err error) {
		conf, err = loader()
		if err != nil {
			return
		}
		level, set := conf.LogLevel()
		if set {
			logctx.SetLogLevel(ctx, level)
		}
		return
	}
}
