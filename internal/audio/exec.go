package audio

import (
	"fmt"
	"os/exec"
)

// commandError wraps external tool failures with enough context to
// diagnose them from a report or log line.
type commandError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *commandError) Error() string {
	return fmt.Sprintf("%s\nCommand: %s\nOutput: %s", e.wrapped, e.cmd, e.output)
}

func (e *commandError) Unwrap() error {
	return e.wrapped
}

// newCommandError builds a commandError with the command line truncated
// to keep report output readable.
func newCommandError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	return &commandError{
		cmd:     cmdStr,
		output:  string(output),
		wrapped: err,
	}
}
