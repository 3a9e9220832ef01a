package install

import (
	"fmt"
	"os"
	"pipesyslog/internal/config"
)

func installConfig(configFilePath string) (err error) {
	written, err := config.InstallTemplateConfig(configFilePath, os.Stdin)
	if err != nil {
		return
	}
	if written {
		fmt.Printf("Successfully wrote template configuration file to '%s'\n", configFilePath)
	}
	return
}

func uninstallConfig(configFilePath string) (err error) {
	err = os.Remove(configFilePath)
	if err != nil && !os.IsNotExist(err) {
		return
	} else {
		err = nil
	}

	fmt.Printf("Successfully removed configuration file '%s'\n", configFilePath)
	return
}
