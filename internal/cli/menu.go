package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"pipesyslog/internal/global"
	"sort"
	"strings"
)

const (
	RootCLICommand  string = "root"
	helpMenuTrailer string = `
Signals (run): USR1 refreshes tail channels, USR2/HUP reloads configuration, TERM/INT stops
Configuration formats: JSON, or YAML when the file ends in .yaml/.yml
`
)

// Full standardized help menu (wraps option printer as well)
func PrintHelpMenu(fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	writeHelpMenu(os.Stdout, fs, command, rootCmd)
}

func writeHelpMenu(output io.Writer, fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	const indent = "  "

	curCmdSet := rootCmd
	if command != "" && command != RootCLICommand {
		cmd, ok := rootCmd.ChildCommands[command]
		if !ok {
			fmt.Fprintf(output, "Unknown command: %s\n", command)
			return
		}
		curCmdSet = cmd
	}

	// Usage line never includes the root name
	usage := []string{os.Args[0]}
	if curCmdSet != rootCmd {
		usage = append(usage, curCmdSet.CommandName)
	}
	if len(curCmdSet.ChildCommands) > 0 {
		usage = append(usage, "[subcommand]")
	}
	if curCmdSet.UsageOption != "" {
		usage = append(usage, curCmdSet.UsageOption)
	}
	fmt.Fprintf(output, "Usage: %s\n\n", strings.Join(usage, " "))

	if curCmdSet == rootCmd {
		fmt.Fprintf(output, "%s\n%s\n\n", curCmdSet.Description, curCmdSet.FullDescription)
	} else if curCmdSet.FullDescription != "" {
		fmt.Fprintf(output, "%sDescription:\n%s%s%s\n\n", indent, indent, indent, curCmdSet.FullDescription)
	}

	if len(curCmdSet.ChildCommands) > 0 {
		names := make([]string, 0, len(curCmdSet.ChildCommands))
		width := 0
		for name := range curCmdSet.ChildCommands {
			names = append(names, name)
			width = max(width, len(name))
		}
		sort.Strings(names)

		fmt.Fprintf(output, "%sSubcommands:\n", indent)
		for _, name := range names {
			fmt.Fprintf(output, "%s%s%-*s - %s\n", indent, indent, width+2, name, curCmdSet.ChildCommands[name].Description)
		}
		fmt.Fprintln(output)
	}

	writeFlagOptions(output, fs, indent)

	if curCmdSet == rootCmd {
		fmt.Fprint(output, helpMenuTrailer)
	}
}

// One printed option row; short and long spellings of the same flag share a usage text
type optionRow struct {
	short      string
	long       []string
	usage      string
	defaultVal string
}

func (row optionRow) names() string {
	const shortSlot = "    " // width of "-x, " so long-only flags line up
	long := strings.Join(row.long, ", ")
	switch {
	case row.short != "" && long != "":
		return row.short + ", " + long
	case row.short != "":
		return row.short
	}
	return shortSlot + long
}

// Prints options with short/long spellings merged and usage text aligned
func writeFlagOptions(output io.Writer, fs *flag.FlagSet, indent string) {
	rows := make(map[string]*optionRow)
	var order []*optionRow

	fs.VisitAll(func(arg *flag.Flag) {
		row, seen := rows[arg.Usage]
		if !seen {
			row = &optionRow{usage: arg.Usage, defaultVal: arg.DefValue}
			rows[arg.Usage] = row
			order = append(order, row)
		}
		if len(arg.Name) == 1 {
			row.short = "-" + arg.Name
		} else {
			row.long = append(row.long, "--"+arg.Name)
		}
	})

	sort.Slice(order, func(a, b int) bool {
		return strings.ToLower(strings.TrimLeft(order[a].names(), " -")) < strings.ToLower(strings.TrimLeft(order[b].names(), " -"))
	})

	width := 0
	for _, row := range order {
		width = max(width, len(row.names()))
	}

	fmt.Fprintf(output, "%sOptions:\n", indent)
	for _, row := range order {
		desc := row.usage
		// Skip printing any "empty" defaults
		if row.defaultVal != "" && row.defaultVal != "false" && row.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", row.defaultVal)
		}
		fmt.Fprintf(output, "%s%-*s  %s\n", indent, width, row.names(), desc)
	}
}
