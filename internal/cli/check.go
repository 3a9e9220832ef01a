package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/syslog"
)

// Dry run: validates the configuration and shows what run would open
func CheckMode(commandname string, args []string) {
	var configPath string
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath)

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
	}
	commandFlags.Parse(args[0:])

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printCheck(os.Stdout, conf)
}

func printCheck(output io.Writer, conf config.File) {
	for _, warning := range conf.Warnings() {
		fmt.Fprintf(output, "Warning: %s\n", warning)
	}

	for _, name := range conf.SourceNames() {
		source := conf.Sources[name]
		fmt.Fprintf(output, "%s -> %s://%s (%s, %s, facility %s, tag %s)\n",
			name, source.Transport, source.Endpoint(), source.Protocol, source.Format, source.Facility, source.Tag)

		for _, sink := range source.AllSinks() {
			severity := syslog.Resolve(source, sink)
			fmt.Fprintf(output, "  %s [%s]\n", sink.Channel, severity)
		}
	}

	if conf.Metrics.Enabled {
		fmt.Fprintf(output, "metrics: http://%s%s\n", conf.Metrics.Listen, global.HTTPMetricsPath)
	}
	fmt.Fprintf(output, "Configuration OK: %d source(s)\n", len(conf.Sources))
}
