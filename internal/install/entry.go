// Handles installation and removal of the daemon as a systemd service
package install

import (
	"bufio"
	"embed"
	"fmt"
	"os"
	"pipesyslog/internal/global"
	"pipesyslog/internal/lifecycle"
	"strings"

	"golang.org/x/term"
)

// Read in installation static files at compile time
//
//go:embed static-files/*
var installationFiles embed.FS

// Installation targets
type Paths struct {
	Binary string
	Config string
	Unit   string
}

func DefaultPaths() (paths Paths) {
	paths = Paths{
		Binary: global.DefaultBinaryPath,
		Config: global.DefaultConfigPath,
		Unit:   global.DefaultUnitPath,
	}
	return
}

// Full installation (idempotent)
func Run(paths Paths, creds lifecycle.Credentials) {
	// Must run as root
	if os.Geteuid() != 0 {
		fmt.Fprintf(os.Stderr, "Installation must be run as root\n")
		os.Exit(1)
	}

	// Move binary (self) into place
	err := installBinary(paths.Binary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error installing binary: %v\n", err)
		os.Exit(1)
	}

	// Add shell autocomplete
	err = installBashAutocomplete()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting bash autocomplete: %v\n", err)
		os.Exit(1)
	}

	// Create template config
	err = installConfig(paths.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with template config: %v\n", err)
		os.Exit(1)
	}

	// Create systemd service
	err = installService(paths, creds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with Systemd service: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Installation completed successfully\n")
}

// Full uninstall
func Remove(paths Paths) {
	// Only ask if in terminal
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Printf("Are you SURE you want to uninstall? (this will remove the configuration file) (yes/no): ")
		reader := bufio.NewReader(os.Stdin)
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		if strings.ToLower(input) != "yes" {
			fmt.Printf("Aborting uninstall\n")
			return
		}
	}

	// Must run as root
	if os.Geteuid() != 0 {
		fmt.Fprintf(os.Stderr, "Uninstall must be run as root\n")
		os.Exit(1)
	}

	// Systemd service
	err := uninstallService(paths.Unit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with Systemd service: %v\n", err)
	}

	// Remove binary
	err = uninstallBinary(paths.Binary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing binary: %v\n", err)
	}

	// Remove shell autocomplete
	err = uninstallBashAutocomplete()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing bash autocomplete: %v\n", err)
	}

	// Remove config
	err = uninstallConfig(paths.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing configuration: %v\n", err)
	}
}
