package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"hypedeploy/internal/logger"
	"hypedeploy/internal/terminal"
)

// Target is an operating system and architecture pair, e.g. linux/amd64.
type Target struct {
	OS   string
	Arch string
}

func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

func ParseTarget(s string) (Target, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return Target{OS: parts[0], Arch: parts[1]}, nil
}

// Builder produces a binary for target and returns its local path.
type Builder interface {
	Build(target Target) (string, error)
}

// CommandBuilder runs an external cross-compilation tool.
type CommandBuilder struct {
	Tool     string
	Dir      string
	Artifact string

	args func(target Target, output string) []string
	env  func(target Target) []string
}

// NewGoxBuilder builds with gox -osarch=<target> -output <artifact>.
func NewGoxBuilder(dir string, artifact string) *CommandBuilder {
	return &CommandBuilder{
		Tool:     "gox",
		Dir:      dir,
		Artifact: artifact,
		args: func(target Target, output string) []string {
			return []string{"-osarch=" + target.String(), "-output", output}
		},
	}
}

// NewGoBuilder builds with go build, selecting the target through GOOS/GOARCH.
func NewGoBuilder(dir string, artifact string) *CommandBuilder {
	return &CommandBuilder{
		Tool:     "go",
		Dir:      dir,
		Artifact: artifact,
		args: func(_ Target, output string) []string {
			return []string{"build", "-o", output, "."}
		},
		env: func(target Target) []string {
			return []string{"GOOS=" + target.OS, "GOARCH=" + target.Arch, "CGO_ENABLED=0"}
		},
	}
}

// New returns the builder registered under tool ("gox" or "go").
func New(tool string, dir string, artifact string) (*CommandBuilder, error) {
	switch tool {
	case "gox":
		return NewGoxBuilder(dir, artifact), nil
	case "go":
		return NewGoBuilder(dir, artifact), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedTool, tool)
}

// ArtifactPath is where the artifact lands on the local filesystem.
func (b *CommandBuilder) ArtifactPath() string {
	if b.Dir == "" || filepath.IsAbs(b.Artifact) {
		return b.Artifact
	}
	return filepath.Join(b.Dir, b.Artifact)
}

func (b *CommandBuilder) Build(target Target) (string, error) {
	artifact := b.ArtifactPath()

	// a leftover from an earlier run must not pass for this build's output
	switch err := os.Remove(artifact); {
	case err == nil:
		logger.Info("Removed stale artifact %s before building", artifact)
	case !errors.Is(err, fs.ErrNotExist):
		return "", &BuildError{Target: target, Err: fmt.Errorf("remove stale artifact: %w", err)}
	}

	cmd := terminal.NewCommand(b.Tool, b.args(target, b.Artifact)...)
	cmd.Dir = b.Dir
	if b.env != nil {
		cmd.Env = b.env(target)
	}

	logger.Info("Building %s for %s: %s", b.Artifact, target, cmd)

	out, err := cmd.Execute()
	if err != nil {
		buildErr := &BuildError{Target: target, Command: cmd.String(), Err: err}

		var exitErr *terminal.ExitError
		if errors.As(err, &exitErr) {
			buildErr.Output = exitErr.Stderr
		}

		return "", buildErr
	}

	if out != "" {
		logger.Debug("%s", out)
	}

	info, err := os.Stat(artifact)
	if err != nil {
		return "", &BuildError{Target: target, Command: cmd.String(), Output: out, Err: fmt.Errorf("%w: %s", ErrArtifactMissing, artifact)}
	}

	if !info.Mode().IsRegular() {
		return "", &BuildError{Target: target, Command: cmd.String(), Output: out, Err: fmt.Errorf("%w: %s", ErrArtifactNotRegular, artifact)}
	}

	return artifact, nil
}
