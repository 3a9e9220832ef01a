package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"pipesyslog/internal/cli"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"runtime"
)

func main() {
	global.CmdOpts = cli.DefineOptions()

	args := os.Args
	commandFlags := flag.NewFlagSet(args[0], flag.ExitOnError)
	cli.SetGlobalArguments(commandFlags)

	commandFlags.Usage = func() {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, global.CmdOpts)
	}
	if len(args) < 2 {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, global.CmdOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args[1:])

	// Retrieve command and args
	command := args[1]
	args = args[2:]

	// Process identity stamped on forwarded lines
	global.Hostname, _ = os.Hostname()
	global.PID = os.Getpid()

	// Setting global logging (subcommands may raise or lower the level)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logctx.New(ctx, "global", global.Verbosity, ctx.Done())
	logger := logctx.GetLogger(ctx)
	logctx.StartWatcher(logger, os.Stdout) // Send received output to stdout

	// Process commands
	switch command {
	case "run":
		cli.RunMode(ctx, command, args)
	case "check":
		cli.CheckMode(command, args)
	case "configure":
		cli.SetupMode(global.CmdOpts, command, args)
	case "version":
		if len(args) > 0 && (args[0] == "--verbosity" || args[0] == "-v") {
			fmt.Printf("pipesyslog %s\n", global.ProgVersion)
			fmt.Printf("Built using %s(%s) for %s on %s\n", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH)
		} else {
			fmt.Println(global.ProgVersion)
		}
	default:
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, global.CmdOpts)
		os.Exit(1)
	}

	// Finish up any stdout writes for global logger
	cancel()
	logger.Wake()
	logger.Wait()
}
