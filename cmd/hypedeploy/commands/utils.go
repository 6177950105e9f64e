package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"hypedeploy/cmd/hypedeploy/config"
	"hypedeploy/internal/deploy"
	"hypedeploy/internal/journal"
	"hypedeploy/internal/logger"
	"hypedeploy/internal/ssh"

	"golang.org/x/term"
)

func readPasswordSecurely(prompt string, errOut io.Writer) (string, error) {
	// readPasswordSecurely reads a password from the terminal without echoing
	fmt.Fprintf(errOut, "%s", prompt)

	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))

	fmt.Fprintf(errOut, "\n")

	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

// parseSSHURL parses an SSH URL in the format username@hostname:port or username@hostname
// Returns username, hostname, port, and any error
func parseSSHURL(sshURL string) (username, hostname string, port uint, err error) {
	// Check if URL contains port
	if strings.Contains(sshURL, ":") {
		parts := strings.Split(sshURL, ":")
		if len(parts) != 2 {
			return "", "", 0, fmt.Errorf("invalid SSH URL format: %s", sshURL)
		}

		// Parse port
		if portStr := parts[1]; portStr != "" {
			parsedPort, err := strconv.ParseUint(portStr, 10, 32)

			if err != nil {
				return "", "", 0, fmt.Errorf("invalid port number: %s", portStr)
			}

			if parsedPort > 65535 {
				return "", "", 0, fmt.Errorf("port number must be between 0 and 65535")
			}

			port = uint(parsedPort)
		}

		sshURL = parts[0]
	}

	// Parse username@hostname
	if strings.Contains(sshURL, "@") {
		parts := strings.Split(sshURL, "@")
		if len(parts) != 2 {
			return "", "", 0, fmt.Errorf("invalid SSH URL format: %s", sshURL)
		}
		username = parts[0]
		hostname = parts[1]

		if username == "" {
			return "", "", 0, fmt.Errorf("username cannot be empty")
		}
	} else {
		hostname = sshURL
	}

	if hostname == "" {
		return "", "", 0, fmt.Errorf("hostname cannot be empty")
	}

	return username, hostname, port, nil
}

func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

var defaultIdentityFiles = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// defaultIdentityFile returns the first standard key in ~/.ssh that exists.
func defaultIdentityFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	for _, name := range defaultIdentityFiles {
		if p := filepath.Join(home, ".ssh", name); fileExists(p) {
			return p
		}
	}

	return ""
}

// buildSSHCredentials turns the configured host into credentials. The host
// may be an ssh_config alias or username@hostname[:port]; explicit settings
// win over ssh_config, which wins over defaults. Without any configured key
// the standard ~/.ssh identities are tried.
func buildSSHCredentials(cfg *config.Configuration) (*ssh.Credentials, error) {
	username, alias, port, err := parseSSHURL(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host '%s': %v", cfg.Host, err)
	}

	sshConfig, err := ssh.LoadSSHConfig(cfg.SSHConfigPath)
	if err != nil {
		logger.Warn("Ignoring ssh config %s: %v", cfg.SSHConfigPath, err)
	}

	entry, err := ssh.ResolveHost(sshConfig, alias)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve host '%s': %v", alias, err)
	}

	creds := &ssh.Credentials{
		Host:            entry.HostName,
		Port:            22,
		Username:        entry.User,
		Passphrase:      cfg.SSHPassphrase,
		Password:        cfg.SSHPassword,
		UseAgent:        cfg.UseAgent,
		KnownHostsPath:  cfg.KnownHostsPath,
		InsecureHostKey: cfg.InsecureHostKey,
	}

	// ssh skips identity files that do not exist, and so do we
	if entry.IdentityFile != "" && fileExists(entry.IdentityFile) {
		creds.PrivateKeyPath = entry.IdentityFile
	}

	if entry.Port != 0 {
		creds.Port = entry.Port
	}

	if cfg.Port != 0 {
		creds.Port = cfg.Port
	}

	if port != 0 {
		creds.Port = port
	}

	if cfg.User != "" {
		creds.Username = cfg.User
	}

	if username != "" {
		creds.Username = username
	}

	if creds.Username == "" {
		creds.Username = currentUsername()
	}

	if cfg.SSHKeyPath != "" {
		creds.PrivateKeyPath = cfg.SSHKeyPath
	}

	if creds.PrivateKeyPath == "" {
		creds.PrivateKeyPath = defaultIdentityFile()
	}

	if creds.Username == "" {
		return nil, fmt.Errorf("SSH username is required. Set DEPLOY_USER or User in ssh config")
	}

	return creds, nil
}

// connectSession opens the remote session, asking for the key passphrase
// once when the key is encrypted and stdin is a terminal.
func connectSession(creds *ssh.Credentials, errOut io.Writer) (*ssh.Service, error) {
	session := ssh.NewService()

	err := session.Connect(creds)

	if errors.Is(err, ssh.ErrPassphraseRequired) && term.IsTerminal(int(os.Stdin.Fd())) {
		passphrase, readErr := readPasswordSecurely("🔒 Enter SSH key passphrase: ", errOut)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read passphrase: %v", readErr)
		}
		creds.Passphrase = passphrase
		err = session.Connect(creds)
	}

	if err != nil {
		return nil, err
	}

	return session, nil
}

func layoutFromConfig(cfg *config.Configuration) deploy.Layout {
	return deploy.Layout{
		Program:                cfg.Program,
		ServiceDir:             cfg.ServiceDir,
		LogDir:                 cfg.LogDir,
		BinaryName:             cfg.BinaryName,
		SupervisorConfigLocal:  cfg.LocalPath(cfg.SupervisorConfig),
		SupervisorConfigRemote: cfg.SupervisorConfigPath,
		IndexLocal:             cfg.LocalPath(cfg.Index),
		StaticLocal:            cfg.LocalPath(cfg.Static),
		RestartWithSudo:        cfg.RestartWithSudo,
	}
}

// operationRun ties one provision/release invocation to its journal row.
type operationRun struct {
	operation string
	run       *journal.Run
	observer  deploy.Observer
}

func startOperation(operation string, host string) *operationRun {
	op := &operationRun{operation: operation, observer: deploy.LogObserver{}}

	if journalRepository == nil {
		return op
	}

	run, err := journalRepository.StartRun(operation, host)

	if err != nil {
		logger.Warn("Failed to record %s in journal: %v", operation, err)
		return op
	}

	op.run = run
	op.observer = deploy.Observers{
		deploy.LogObserver{},
		&deploy.JournalObserver{Repository: journalRepository, RunID: run.ID},
	}

	return op
}

// finish records the outcome and returns err unchanged.
func (o *operationRun) finish(err error) error {
	failedStep := ""

	var stepErr *deploy.StepError
	if errors.As(err, &stepErr) {
		failedStep = stepErr.Step
	}

	if o.run != nil {
		if journalErr := journalRepository.FinishRun(o.run.ID, failedStep, err); journalErr != nil {
			logger.Warn("Failed to close journal run %s: %v", o.run.ID, journalErr)
		}
	}

	return err
}

// connect opens the session for an operation; failures are reported as the
// operation halting at the connect step.
func (o *operationRun) connect(creds *ssh.Credentials, errOut io.Writer) (*ssh.Service, error) {
	session, err := connectSession(creds, errOut)

	if err != nil {
		return nil, &deploy.StepError{Operation: o.operation, Step: deploy.StepConnect, Err: err}
	}

	return session, nil
}
