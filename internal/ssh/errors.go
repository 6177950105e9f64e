package ssh

import (
	"errors"
	"fmt"
)

// SSH connection errors
var (
	ErrNoAuthMethodProvided        = errors.New("no valid authentication method provided")
	ErrSSHConnectionNotEstablished = errors.New("SSH connection not established")
	ErrFailedToCreateAuth          = errors.New("failed to create auth")
	ErrFailedToCreateSSHClient     = errors.New("failed to create SSH client")
	ErrFailedToLoadKnownHosts      = errors.New("failed to load known_hosts")
	ErrPassphraseRequired          = errors.New("private key is encrypted and no passphrase was given")
)

// Command execution errors
var (
	ErrNonZeroExit      = errors.New("remote command exited with non-zero status")
	ErrLocalPathMissing = errors.New("local path does not exist")
)

// RemoteExecutionError is returned when a remote command could not be run
// or exited non-zero.
type RemoteExecutionError struct {
	Host     string
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RemoteExecutionError) Error() string {
	msg := fmt.Sprintf("remote command %q on %s failed", e.Command, e.Host)

	if e.Command == "" {
		msg = fmt.Sprintf("connection to %s failed", e.Host)
	}

	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}

	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *RemoteExecutionError) Unwrap() error {
	return e.Err
}

// SyncError is returned when mirroring a local path to the remote host fails.
type SyncError struct {
	Host       string
	LocalPath  string
	RemotePath string
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s -> %s:%s failed: %v", e.LocalPath, e.Host, e.RemotePath, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
