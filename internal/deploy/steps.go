package deploy

import (
	"time"

	"hypedeploy/internal/ssh"
)

// Step names, in the order the operations run them.
const (
	StepConnect = "connect"

	StepMkdirServiceDir        = "mkdir-service-dir"
	StepMkdirLogDir            = "mkdir-log-dir"
	StepUploadSupervisorConfig = "upload-supervisor-config"

	StepBuild        = "build"
	StepUploadBinary = "upload-binary"
	StepUploadIndex  = "upload-index"
	StepUploadStatic = "upload-static"
	StepCleanup      = "cleanup"
	StepRestart      = "restart"
)

const (
	OperationProvision = "provision"
	OperationRelease   = "release"
)

// RemoteSession is the part of *ssh.Service the operations depend on.
type RemoteSession interface {
	RunRemote(command string) (*ssh.CommandResult, error)
	SyncPath(localPath string, remotePath string) error
}

// Step is one statically declared action of an operation.
type Step struct {
	Name string
	Run  func() error
	// Optional steps log their failure and let the operation continue.
	Optional bool
}

// runSteps executes steps in order and stops at the first failing
// non-optional step.
func runSteps(operation string, steps []Step, observer Observer) error {
	if observer == nil {
		observer = Observers{}
	}

	for i, step := range steps {
		seq := i + 1

		observer.StepStarted(operation, seq, len(steps), step.Name)

		started := time.Now()
		err := step.Run()

		observer.StepFinished(operation, seq, step.Name, StepResult{
			Err:       err,
			Optional:  step.Optional,
			StartedAt: started,
			Duration:  time.Since(started),
		})

		if err != nil && !step.Optional {
			return &StepError{Operation: operation, Step: step.Name, Seq: seq, Err: err}
		}
	}

	return nil
}
