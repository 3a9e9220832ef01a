package install

import (
	"fmt"
	"os"
	"path/filepath"
)

func installBinary(binaryPath string) (err error) {
	selfPath, err := os.Executable()
	if err != nil {
		return
	}
	selfPath, err = filepath.EvalSymlinks(selfPath)
	if err != nil {
		return
	}

	// Already in place (reinstall from installed copy)
	if selfPath == binaryPath {
		return
	}

	err = os.Rename(selfPath, binaryPath)
	if err != nil {
		err = fmt.Errorf("failed to move: %w", err)
		return
	}

	fmt.Printf("Successfully installed binary to '%s'\n", binaryPath)
	return
}

func uninstallBinary(binaryPath string) (err error) {
	err = os.Remove(binaryPath)
	if err != nil && !os.IsNotExist(err) {
		return
	} else {
		err = nil
	}

	fmt.Printf("Successfully removed binary from '%s'\n", binaryPath)
	return
}
