package ssh

// Credentials represents different types of SSH authentication
type Credentials struct {
	Host     string
	Port     uint
	Username string
	// Password authentication
	Password string
	// Key-based authentication
	PrivateKeyPath string
	PrivateKeyData []byte
	// Passphrase for private key (if encrypted)
	Passphrase string
	// UseAgent adds the keys held by a running ssh-agent
	UseAgent bool

	KnownHostsPath  string
	InsecureHostKey bool
}

type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// SyncStats counts the files visited by a single SyncPath call.
type SyncStats struct {
	Uploaded int
	Skipped  int
	Dirs     int
}
