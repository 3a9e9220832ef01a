package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"pipesyslog/internal/lifecycle"
	"strings"
)

// Fills the embedded unit template with install paths and optional privilege drop arguments
func renderUnit(paths Paths, creds lifecycle.Credentials) (unitFile []byte, err error) {
	template, err := installationFiles.ReadFile("static-files/pipesyslog.service")
	if err != nil {
		err = fmt.Errorf("Unable to retrieve unit file from embedded filesystem: %v", err)
		return
	}

	var privilegeArgs string
	if creds.User != "" {
		privilegeArgs += " --user " + creds.User
	}
	if creds.Group != "" {
		privilegeArgs += " --group " + creds.Group
	}

	// Inject variables into file
	newUnitFile := strings.Replace(string(template), "$executableFilePath", paths.Binary, 1)
	newUnitFile = strings.Replace(newUnitFile, "$configFilePath", paths.Config, 1)
	newUnitFile = strings.Replace(newUnitFile, "$privilegeArgs", privilegeArgs, 1)
	unitFile = []byte(newUnitFile)
	return
}

func installService(paths Paths, creds lifecycle.Credentials) (err error) {
	unitName := filepath.Base(paths.Unit)

	unitFile, err := renderUnit(paths, creds)
	if err != nil {
		return
	}

	err = os.WriteFile(paths.Unit, unitFile, 0644)
	if err != nil {
		return
	}

	// Reload for new unit file
	command := exec.Command("systemctl", "daemon-reload")
	output, err := command.CombinedOutput()
	if err != nil {
		err = fmt.Errorf("Failed to reload systemd units: %v: %s", err, string(output))
		return
	}

	// Check if enabled
	command = exec.Command("systemctl", "is-enabled", unitName)
	output, err = command.CombinedOutput()
	if err != nil {
		if !strings.Contains(string(output), "disabled") {
			err = fmt.Errorf("Failed to check systemd service enablement status: %v: %s", err, string(output))
			return
		}
		// Disabled status is exit code 1
		err = nil
	}
	enableStatus := strings.Trim(string(output), "\n")

	if strings.ToLower(enableStatus) != "enabled" {
		command := exec.Command("systemctl", "enable", unitName)
		output, err = command.CombinedOutput()
		if err != nil {
			err = fmt.Errorf("Failed to enable systemd service: %v: %s", err, string(output))
			return
		}
	}

	fmt.Printf("Successfully installed Systemd service\n")
	fmt.Printf("  IMPORTANT: modify the configuration to your needs and start the service with 'systemctl start %s'\n", unitName)
	return
}

func uninstallService(unitFilePath string) (err error) {
	unitName := filepath.Base(unitFilePath)

	// Check if enabled
	command := exec.Command("systemctl", "is-enabled", unitName)
	output, err := command.CombinedOutput()
	if err != nil {
		status := string(output)
		if !strings.Contains(status, "not-found") && !strings.Contains(status, "disabled") && !strings.Contains(status, "enabled") {
			err = fmt.Errorf("Failed to check systemd service enablement status: %v: %s", err, status)
			return
		}
		// Disabled/not-found status is exit code != 0
		err = nil
	}
	enableStatus := strings.Trim(string(output), "\n")

	if strings.ToLower(enableStatus) == "enabled" {
		command := exec.Command("systemctl", "disable", unitName)
		output, err = command.CombinedOutput()
		if err != nil {
			err = fmt.Errorf("Failed to disable systemd service: %v: %s", err, string(output))
			return
		}
	}

	command = exec.Command("systemctl", "show", unitName, "--property=ActiveState")
	output, err = command.CombinedOutput()
	if err != nil {
		if !strings.Contains(string(output), "could not be found") {
			err = fmt.Errorf("Failed to check systemd service status: %v: %s", err, string(output))
			return
		}
	}
	serviceStatus := strings.Trim(string(output), "\n")

	if strings.Contains(serviceStatus, "=active") {
		command = exec.Command("systemctl", "stop", unitName)
		output, err = command.CombinedOutput()
		if err != nil {
			err = fmt.Errorf("Failed to stop systemd service: %v: %s", err, string(output))
			return
		}
	}

	err = os.Remove(unitFilePath)
	if err != nil && !os.IsNotExist(err) {
		return
	}
	err = nil

	// Reload for removed unit file
	command = exec.Command("systemctl", "daemon-reload")
	output, err = command.CombinedOutput()
	if err != nil {
		err = fmt.Errorf("Failed to reload systemd units: %v: %s", err, string(output))
		return
	}

	fmt.Printf("Successfully uninstalled systemd service\n")
	return
}
