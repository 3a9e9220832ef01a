package cli

import (
	"flag"
	"fmt"
	"os"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/install"
	"pipesyslog/internal/lifecycle"
)

// Setup/installation options
func SetupMode(cliOpts *global.CommandSet, commandname string, args []string) {
	var installService bool
	var uninstallService bool
	var templateConfPath string
	var creds lifecycle.Credentials

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.BoolVar(&installService, "install-service", false, "Install/Upgrade the forwarder daemon as a systemd service")
	commandFlags.BoolVar(&uninstallService, "uninstall-service", false, "Remove the forwarder daemon, its service and configuration")
	commandFlags.StringVar(&templateConfPath, "config-template", "", "Write a template config to this path (YAML when it ends in .yaml/.yml)")
	SetPrivilegeArguments(commandFlags, &creds)

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	if len(args) < 1 {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args[0:])

	var err error

	if templateConfPath != "" {
		var written bool
		written, err = config.InstallTemplateConfig(templateConfPath, os.Stdin)
		if written {
			fmt.Printf("Wrote template configuration to '%s'\n", templateConfPath)
		}
	} else if installService {
		install.Run(install.DefaultPaths(), creds)
	} else if uninstallService {
		install.Remove(install.DefaultPaths())
	} else {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
