package terminal

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command is a local subprocess invocation.
type Command struct {
	Command string
	Args    []string
	Dir     string
	// Env entries are appended to the current process environment.
	Env []string
}

// ExitError is returned when the command ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d\nStderr: %s", e.Command, e.ExitCode, e.Stderr)
}

func NewCommand(command string, args ...string) *Command {
	return &Command{
		Command: command,
		Args:    args,
	}
}

func (c *Command) String() string {
	return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
}

func (c *Command) Execute() (string, error) {
	cmd := exec.Command(c.Command, c.Args...)

	if c.Dir != "" {
		cmd.Dir = c.Dir
	}

	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", &ExitError{
				Command:  c.String(),
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", fmt.Errorf("command failed: %v\nStderr: %s", err, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}
