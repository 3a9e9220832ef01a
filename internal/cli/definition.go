package cli

import "pipesyslog/internal/global"

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "Pipe to Syslog (pipesyslog)",
		FullDescription: "  Forwards lines from listening sockets and tailed files to remote syslog or beats endpoints",
		CommandName:     RootCLICommand,
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	// Daemon
	root.ChildCommands["run"] = &global.CommandSet{
		CommandName:     "run",
		Description:     "Run Forwarder",
		FullDescription: "Opens every configured channel and forwards each line to its source's endpoint until stopped",
		ChildCommands:   nil,
	}

	// Dry run
	root.ChildCommands["check"] = &global.CommandSet{
		CommandName:     "check",
		Description:     "Validate Configuration",
		FullDescription: "Loads and validates the configuration, then prints every source with its sinks and resolved severities",
		ChildCommands:   nil,
	}

	// Setup
	root.ChildCommands["configure"] = &global.CommandSet{
		CommandName:     "configure",
		Description:     "Setup Actions",
		FullDescription: "Create template configurations and install or remove the systemd service",
		ChildCommands:   nil,
	}

	// Version Info
	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}
