package install

import (
	"fmt"
	"os"
	"path/filepath"
	"pipesyslog/internal/global"
)

const sysAutocompleteDir string = "/usr/share/bash-completion/completions"

// Completion file location: system directory when present, otherwise the user's ~/.bash_completion.d
func autocompletePath() (path string, system bool, err error) {
	_, err = os.Stat(sysAutocompleteDir)
	if err == nil {
		path = filepath.Join(sysAutocompleteDir, global.ProgBaseName)
		system = true
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		err = fmt.Errorf("Failed to find user home directory: %v", err)
		return
	}
	path = filepath.Join(homeDir, ".bash_completion.d", global.ProgBaseName)
	return
}

func installBashAutocomplete() (err error) {
	script, err := installationFiles.ReadFile("static-files/autocomplete.sh")
	if err != nil {
		err = fmt.Errorf("Unable to retrieve autocomplete file from embedded filesystem: %v", err)
		return
	}

	path, system, err := autocompletePath()
	if err != nil {
		return
	}
	if !system {
		err = os.MkdirAll(filepath.Dir(path), 0750)
		if err != nil {
			err = fmt.Errorf("Failed to create user autocomplete dir: %v", err)
			return
		}
		fmt.Printf("System completion dir missing, installing bash completion at %s\n", path)
		fmt.Printf("Make sure ~/.bashrc sources ~/.bash_completion.d/*\n")
	}

	err = os.WriteFile(path, script, 0644)
	if err != nil {
		err = fmt.Errorf("Failed to write autocompletion file: %v", err)
		return
	}
	return
}

func uninstallBashAutocomplete() (err error) {
	path, _, err := autocompletePath()
	if err != nil {
		return
	}

	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		err = fmt.Errorf("Failed to remove autocompletion file: %v", err)
		return
	}
	err = nil

	fmt.Printf("Successfully removed shell autocompletion\n")
	return
}
