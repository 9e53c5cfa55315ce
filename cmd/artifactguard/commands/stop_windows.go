//go:build windows

package commands

import (
	"errors"
	"fmt"
	"os"
)

// stopProcess interrupts the process, or kills it when force is set.
func stopProcess(process *os.Process, pid int, force bool) error {
	var err error
	if force {
		fmt.Printf("Killing process %d...\n", pid)
		err = process.Kill()
	} else {
		fmt.Printf("Interrupting process %d...\n", pid)
		err = process.Signal(os.Interrupt)
	}

	switch {
	case errors.Is(err, os.ErrProcessDone):
		return errProcessDone
	case err != nil:
		return fmt.Errorf("failed to stop process: %w", err)
	}
	return nil
}
