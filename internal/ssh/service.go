package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"hypedeploy/internal/logger"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const dialTimeout = 10 * time.Second

// Service is a session against a single remote host. It runs shell commands
// and mirrors local paths over one SSH connection.
type Service struct {
	client *goph.Client
	sftp   *sftp.Client
	creds  *Credentials
}

func NewService() *Service {
	return &Service{}
}

func signerFromKey(keyBytes []byte, passphrase string) (ssh.Signer, error) {
	var signer ssh.Signer
	var err error

	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyBytes)
	}

	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, ErrPassphraseRequired
		}
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
	}

	return signer, nil
}

// authMethods collects every configured auth source: key, then agent, then
// password. An encrypted key without a passphrase is skipped when another
// method is available, the way ssh falls back to the agent.
func authMethods(creds *Credentials) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	var keyErr error

	keyBytes := creds.PrivateKeyData
	if creds.PrivateKeyPath != "" {
		var err error
		keyBytes, err = os.ReadFile(creds.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
		}
	}

	if len(keyBytes) > 0 {
		signer, err := signerFromKey(keyBytes, creds.Passphrase)
		switch {
		case errors.Is(err, ErrPassphraseRequired):
			keyErr = err
		case err != nil:
			return nil, err
		default:
			methods = append(methods, ssh.PublicKeys(signer))
		}
	}

	if creds.UseAgent && goph.HasAgent() {
		agentAuth, err := goph.UseAgent()
		if err != nil {
			logger.Warn("ssh-agent unavailable: %v", err)
		} else {
			methods = append(methods, agentAuth...)
		}
	}

	if creds.Password != "" {
		methods = append(methods, ssh.Password(creds.Password))
	}

	if len(methods) == 0 {
		if keyErr != nil {
			return nil, keyErr
		}
		return nil, ErrNoAuthMethodProvided
	}

	if keyErr != nil {
		logger.Debug("skipping encrypted key %s, no passphrase given", creds.PrivateKeyPath)
	}

	return methods, nil
}

func hostKeyCallback(creds *Credentials) (ssh.HostKeyCallback, error) {
	if creds.InsecureHostKey {
		logger.Warn("host key verification disabled for %s", creds.Host)
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := creds.KnownHostsPath
	if path == "" {
		var err error
		path, err = goph.DefaultKnownHostsPath()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadKnownHosts, err)
		}
	}

	callback, err := goph.KnownHosts(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFailedToLoadKnownHosts, path, err)
	}

	return callback, nil
}

func (s *Service) Connect(creds *Credentials) error {
	connErr := func(err error) error {
		return &RemoteExecutionError{Host: creds.Host, Err: err}
	}

	methods, err := authMethods(creds)
	if err != nil {
		return connErr(err)
	}

	callback, err := hostKeyCallback(creds)
	if err != nil {
		return connErr(err)
	}

	sshConfig := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            methods,
		HostKeyCallback: callback,
		Timeout:         dialTimeout,
	}

	hostPort := net.JoinHostPort(creds.Host, fmt.Sprintf("%d", creds.Port))

	logger.Debug("dialing %s@%s", creds.Username, hostPort)

	conn, err := net.DialTimeout("tcp", hostPort, sshConfig.Timeout)

	if err != nil {
		return connErr(fmt.Errorf("%w: %v", ErrFailedToCreateSSHClient, err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, hostPort, sshConfig)

	if err != nil {
		conn.Close()
		return connErr(fmt.Errorf("%w: %v", ErrFailedToCreateSSHClient, err))
	}

	s.client = &goph.Client{Client: ssh.NewClient(sshConn, chans, reqs)}
	s.creds = creds

	return nil
}

func (s *Service) Close() error {
	if s.sftp != nil {
		_ = s.sftp.Close()
		s.sftp = nil
	}

	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}

	return nil
}

func (s *Service) host() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.Host
}

func (s *Service) executeCommand(command string) (*CommandResult, error) {
	if s.client == nil {
		return nil, ErrSSHConnectionNotEstablished
	}

	cmd, err := s.client.Command(command)
	if err != nil {
		return nil, fmt.Errorf("failed to create command: %w", err)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	result := &CommandResult{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

// RunRemote runs command through the remote shell. A non-zero exit status is
// reported as a *RemoteExecutionError carrying the captured stderr.
func (s *Service) RunRemote(command string) (*CommandResult, error) {
	logger.Debug("run %s: %s", s.host(), command)

	result, err := s.executeCommand(command)

	if err != nil {
		rerr := &RemoteExecutionError{Host: s.host(), Command: command, Err: err}
		if result != nil {
			rerr.ExitCode = result.ExitCode
			rerr.Stderr = result.Stderr
		}
		return result, rerr
	}

	if result.ExitCode != 0 {
		return result, &RemoteExecutionError{
			Host:     s.host(),
			Command:  command,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      ErrNonZeroExit,
		}
	}

	return result, nil
}

func (s *Service) sftpClient() (*sftp.Client, error) {
	if s.client == nil {
		return nil, ErrSSHConnectionNotEstablished
	}

	if s.sftp == nil {
		client, err := s.client.NewSftp()
		if err != nil {
			return nil, err
		}
		s.sftp = client
	}

	return s.sftp, nil
}

// SyncPath mirrors localPath to remotePath. See Mirror for the copy rules.
func (s *Service) SyncPath(localPath string, remotePath string) error {
	client, err := s.sftpClient()
	if err != nil {
		return &SyncError{Host: s.host(), LocalPath: localPath, RemotePath: remotePath, Err: err}
	}

	stats, err := Mirror(client, localPath, remotePath)
	if err != nil {
		return &SyncError{Host: s.host(), LocalPath: localPath, RemotePath: remotePath, Err: err}
	}

	logger.Debug("synced %s -> %s (%d uploaded, %d unchanged, %d dirs)", localPath, remotePath, stats.Uploaded, stats.Skipped, stats.Dirs)

	return nil
}
