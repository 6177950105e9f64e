package ssh

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// HostEntry is what an ssh_config file says about a host alias.
type HostEntry struct {
	Alias        string
	HostName     string
	User         string
	Port         uint
	IdentityFile string
}

// LoadSSHConfig decodes the ssh_config file at path. A missing file is not an
// error and yields a nil config.
func LoadSSHConfig(path string) (*ssh_config.Config, error) {
	f, err := os.Open(expandHome(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ResolveHost looks alias up in cfg. Unset fields keep their zero value,
// except HostName which falls back to the alias itself.
func ResolveHost(cfg *ssh_config.Config, alias string) (HostEntry, error) {
	entry := HostEntry{Alias: alias, HostName: alias}

	if cfg == nil {
		return entry, nil
	}

	hostName, err := cfg.Get(alias, "HostName")
	if err != nil {
		return entry, err
	}
	if hostName != "" {
		entry.HostName = strings.ReplaceAll(hostName, "%h", alias)
	}

	if entry.User, err = cfg.Get(alias, "User"); err != nil {
		return entry, err
	}

	port, err := cfg.Get(alias, "Port")
	if err != nil {
		return entry, err
	}
	if port != "" {
		parsed, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return entry, fmt.Errorf("invalid port %q for host %s", port, alias)
		}
		entry.Port = uint(parsed)
	}

	identity, err := cfg.Get(alias, "IdentityFile")
	if err != nil {
		return entry, err
	}
	if identity != "" {
		entry.IdentityFile = expandHome(identity)
	}

	return entry, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}

	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
