//go:build windows

package commands

import (
	"errors"
	"os"
)

func isProcessRunning(pidPath string) (int, bool) {
	pid, err := readPidFile(pidPath)
	if err != nil {
		return 0, false
	}
	if _, err := os.FindProcess(pid); err != nil {
		return 0, false
	}
	return pid, true
}

func startDaemon() error {
	return errors.New("daemon mode is not supported on Windows, use --foreground")
}
