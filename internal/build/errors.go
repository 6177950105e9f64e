package build

import (
	"errors"
	"fmt"
)

var (
	ErrArtifactMissing    = errors.New("build finished but the artifact was not produced")
	ErrArtifactNotRegular = errors.New("artifact is not a regular file")
	ErrInvalidTarget      = errors.New("invalid target, expected os/arch")
	ErrUnsupportedTool    = errors.New("unsupported build tool")
)

// BuildError is returned when the external build command fails or does not
// leave an artifact behind.
type BuildError struct {
	Target  Target
	Command string
	Output  string
	Err     error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("build for %s failed: %v", e.Target, e.Err)

	if e.Command != "" {
		msg = fmt.Sprintf("build for %s (%s) failed: %v", e.Target, e.Command, e.Err)
	}

	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
