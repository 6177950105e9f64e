package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"hypedeploy/internal/build"
	"hypedeploy/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	envFiles := []string{
		".env",
	}

	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Error loading %s: %v", envFile, err)
			}
		}
	}
}

var (
	ErrHostRequired         = errors.New("target host is required")
	ErrRemotePathNotAbs     = errors.New("remote path must be absolute")
	ErrUnsupportedBuildTool = errors.New("unsupported build tool")
)

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	return value
}

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("Could not determine home directory: %v", err)
		return ""
	}
	return homeDir
}

func homePath(fallback string, elem ...string) string {
	homeDir := getHomeDir()
	if homeDir == "" {
		return fallback
	}
	return filepath.Join(append([]string{homeDir}, elem...)...)
}

// Configuration is read once at startup and handed to the commands.
// Field tags name the deploy.yaml keys.
type Configuration struct {
	Host            string `yaml:"host"`
	User            string `yaml:"user"`
	Port            uint   `yaml:"port"`
	SSHKeyPath      string `yaml:"ssh_key_path"`
	SSHPassphrase   string `yaml:"-"`
	SSHPassword     string `yaml:"-"`
	UseAgent        bool   `yaml:"use_agent"`
	KnownHostsPath  string `yaml:"known_hosts"`
	InsecureHostKey bool   `yaml:"insecure_host_key"`
	SSHConfigPath   string `yaml:"ssh_config"`

	Program              string `yaml:"program"`
	ServiceDir           string `yaml:"service_dir"`
	LogDir               string `yaml:"log_dir"`
	BinaryName           string `yaml:"binary_name"`
	SupervisorConfig     string `yaml:"supervisor_config"`
	SupervisorConfigPath string `yaml:"supervisor_config_path"`
	RestartWithSudo      bool   `yaml:"restart_sudo"`

	SourceDir string `yaml:"source_dir"`
	Artifact  string `yaml:"artifact"`
	Index     string `yaml:"index"`
	Static    string `yaml:"static"`
	BuildTool string `yaml:"build_tool"`
	Target    string `yaml:"target"`

	JournalPath string `yaml:"journal_path"`
}

func Defaults() *Configuration {
	return &Configuration{
		Host:           "nickhs",
		UseAgent:       true,
		KnownHostsPath: homePath("", ".ssh", "known_hosts"),
		SSHConfigPath:  homePath("", ".ssh", "config"),

		Program:              "hypeliberator-go",
		ServiceDir:           "/srv/hypeliberator-go",
		LogDir:               "/var/log/hypeliberator-go",
		BinaryName:           "main",
		SupervisorConfig:     "ops/supervisor.conf",
		SupervisorConfigPath: "/etc/supervisor/conf.d/hypeliberator-go.conf",
		RestartWithSudo:      true,

		SourceDir: ".",
		Artifact:  "hypeliberator-go",
		Index:     "index.html",
		Static:    "static/",
		BuildTool: "gox",
		Target:    "linux/amd64",

		JournalPath: homePath("/tmp/hypedeploy/journal.db", ".hypedeploy", "journal.db"),
	}
}

// Load builds the configuration from defaults, then the YAML file at
// configPath (skipped when it does not exist), then the environment.
func Load(configPath string) (*Configuration, error) {
	cfg := Defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)

		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", configPath, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("no config file at %s, using defaults", configPath)
		default:
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envBool(key string, current bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return current, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return current, fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}

	return parsed, nil
}

func (c *Configuration) applyEnv() error {
	c.Host = GetEnv("DEPLOY_HOST", c.Host)
	c.User = GetEnv("DEPLOY_USER", c.User)
	c.SSHKeyPath = GetEnv("DEPLOY_SSH_KEY_PATH", c.SSHKeyPath)
	c.SSHPassphrase = GetEnv("DEPLOY_SSH_PASSPHRASE", c.SSHPassphrase)
	c.SSHPassword = GetEnv("DEPLOY_SSH_PASSWORD", c.SSHPassword)
	c.KnownHostsPath = GetEnv("DEPLOY_KNOWN_HOSTS", c.KnownHostsPath)
	c.SSHConfigPath = GetEnv("SSH_CONFIG_PATH", c.SSHConfigPath)
	c.JournalPath = GetEnv("JOURNAL_PATH", c.JournalPath)

	if port := os.Getenv("DEPLOY_PORT"); port != "" {
		parsed, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid DEPLOY_PORT=%q: %w", port, err)
		}
		c.Port = uint(parsed)
	}

	var err error

	if c.UseAgent, err = envBool("DEPLOY_SSH_USE_AGENT", c.UseAgent); err != nil {
		return err
	}

	if c.InsecureHostKey, err = envBool("DEPLOY_INSECURE_HOST_KEY", c.InsecureHostKey); err != nil {
		return err
	}

	return nil
}

func (c *Configuration) Validate() error {
	if c.Host == "" {
		return ErrHostRequired
	}

	for _, p := range []string{c.ServiceDir, c.LogDir, c.SupervisorConfigPath} {
		if !path.IsAbs(p) {
			return fmt.Errorf("%w: %q", ErrRemotePathNotAbs, p)
		}
	}

	if _, err := build.ParseTarget(c.Target); err != nil {
		return err
	}

	if c.BuildTool != "gox" && c.BuildTool != "go" {
		return fmt.Errorf("%w: %q", ErrUnsupportedBuildTool, c.BuildTool)
	}

	return nil
}

// LocalPath resolves a project-relative path against SourceDir.
func (c *Configuration) LocalPath(p string) string {
	if filepath.IsAbs(p) || c.SourceDir == "" || c.SourceDir == "." {
		return p
	}

	// keep a trailing slash, it marks "directory contents"
	joined := filepath.Join(c.SourceDir, p)
	if len(p) > 0 && os.IsPathSeparator(p[len(p)-1]) {
		joined += string(filepath.Separator)
	}

	return joined
}
