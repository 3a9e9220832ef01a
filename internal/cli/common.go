package cli

import (
	"flag"
	"pipesyslog/internal/global"
	"pipesyslog/internal/lifecycle"
)

func SetGlobalArguments(fs *flag.FlagSet) {
	fs.IntVar(&global.Verbosity, "v", 1, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	fs.IntVar(&global.Verbosity, "verbosity", 1, "Increase detailed progress messages (Higher is more verbose) <0...5>")
}

func SetCommon(fs *flag.FlagSet, configPath *string) {
	fs.StringVar(configPath, "c", global.DefaultConfigPath, "Path to the configuration file")
	fs.StringVar(configPath, "config", global.DefaultConfigPath, "Path to the configuration file")
}

// Identity switched to after startup
func SetPrivilegeArguments(fs *flag.FlagSet, creds *lifecycle.Credentials) {
	fs.StringVar(&creds.User, "user", "", "Drop to this user (name or uid) after startup")
	fs.StringVar(&creds.Group, "group", "", "Drop to this group (name or gid) after startup")
}

// Reports whether any of the named flags appeared on the command line
func flagGiven(fs *flag.FlagSet, names ...string) (given bool) {
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				given = true
			}
		}
	})
	return
}
