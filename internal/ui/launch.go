package ui

import (
	"errors"
	"fmt"
	"os/exec"
)

var errEmptyCommand = errors.New("empty command")

// StartCommand starts args[0] with the remaining arguments and reaps it in
// the background.
func StartCommand(args []string) error {
	if len(args) == 0 {
		return errEmptyCommand
	}
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", args[0], err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
