package ssh

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// execResult is what the test server answers to an exec request.
type execResult struct {
	Stdout string
	Stderr string
	Status uint32
}

type testSSHServer struct {
	Host    string
	Port    uint
	HostKey ssh.PublicKey
}

func newSigner(t *testing.T) (ed25519.PrivateKey, ssh.Signer) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	return priv, signer
}

// startSSHServer listens on localhost and accepts the authorized key only.
// Every exec request is answered by handler.
func startSSHServer(t *testing.T, authorized ssh.PublicKey, handler func(command string) execResult) *testSSHServer {
	t.Helper()

	_, hostSigner := newSigner(t)

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), authorized.Marshal()) {
				return nil, nil
			}
			return nil, errors.New("unauthorized key")
		},
	}
	config.AddHostKey(hostSigner)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	t.Cleanup(func() {
		listener.Close()
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go serveSSHConn(conn, config, handler)
		}
	}()

	return &testSSHServer{
		Host:    "127.0.0.1",
		Port:    uint(listener.Addr().(*net.TCPAddr).Port),
		HostKey: hostSigner.PublicKey(),
	}
}

func serveSSHConn(conn net.Conn, config *ssh.ServerConfig, handler func(command string) execResult) {
	serverConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	defer serverConn.Close()

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "session only")
			continue
		}

		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}

		go serveSession(channel, requests, handler)
	}
}

func serveSession(channel ssh.Channel, requests <-chan *ssh.Request, handler func(command string) execResult) {
	defer channel.Close()

	for req := range requests {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}

		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		result := handler(strings.TrimSpace(payload.Command))

		_, _ = io.WriteString(channel, result.Stdout)
		_, _ = io.WriteString(channel.Stderr(), result.Stderr)
		_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{result.Status}))

		return
	}
}

// writeKnownHosts records key for the server address in a fresh known_hosts file.
func writeKnownHosts(t *testing.T, server *testSSHServer, key ssh.PublicKey) string {
	t.Helper()

	address := knownhosts.Normalize(net.JoinHostPort(server.Host, strconv.FormatUint(uint64(server.Port), 10)))
	line := knownhosts.Line([]string{address}, key)

	path := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(path, []byte(line+"\n"), 0o600); err != nil {
		t.Fatalf("write known_hosts: %v", err)
	}

	return path
}

// startAgent serves an in-memory ssh-agent holding key and points
// SSH_AUTH_SOCK at it.
func startAgent(t *testing.T, key ed25519.PrivateKey) {
	t.Helper()

	keyring := agent.NewKeyring()
	if err := keyring.Add(agent.AddedKey{PrivateKey: key}); err != nil {
		t.Fatalf("add key to agent: %v", err)
	}

	dir, err := os.MkdirTemp("", "agent")
	if err != nil {
		t.Fatalf("agent dir: %v", err)
	}

	socket := filepath.Join(dir, "agent.sock")

	listener, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen on agent socket: %v", err)
	}

	t.Cleanup(func() {
		listener.Close()
		os.RemoveAll(dir)
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_ = agent.ServeAgent(keyring, conn)
			}()
		}
	}()

	t.Setenv("SSH_AUTH_SOCK", socket)
}
