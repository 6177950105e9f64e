package deploy

import (
	"os"

	"hypedeploy/internal/build"
	"hypedeploy/internal/templates"
)

// Releaser builds the service, ships it and restarts it under the supervisor.
type Releaser struct {
	Session  RemoteSession
	Builder  build.Builder
	Target   build.Target
	Layout   Layout
	Observer Observer

	// RemoveArtifact deletes the local build output; os.Remove when nil.
	RemoveArtifact func(path string) error
}

func NewReleaser(session RemoteSession, builder build.Builder, target build.Target, layout Layout, observer Observer) *Releaser {
	return &Releaser{
		Session:  session,
		Builder:  builder,
		Target:   target,
		Layout:   layout,
		Observer: observer,
	}
}

func (r *Releaser) Steps() []Step {
	var artifact string

	removeArtifact := r.RemoveArtifact
	if removeArtifact == nil {
		removeArtifact = os.Remove
	}

	return []Step{
		{Name: StepBuild, Run: func() error {
			var err error
			artifact, err = r.Builder.Build(r.Target)
			return err
		}},
		{Name: StepUploadBinary, Run: func() error {
			return r.Session.SyncPath(artifact, r.Layout.RemoteBinaryPath())
		}},
		{Name: StepUploadIndex, Run: func() error {
			return r.Session.SyncPath(r.Layout.IndexLocal, r.Layout.RemoteIndexPath())
		}},
		{Name: StepUploadStatic, Run: func() error {
			return r.Session.SyncPath(r.Layout.StaticLocal, r.Layout.RemoteStaticPath())
		}},
		{Name: StepCleanup, Optional: true, Run: func() error {
			return removeArtifact(artifact)
		}},
		{Name: StepRestart, Run: func() error {
			command, err := templates.RenderScript(templates.RestartScriptPath, map[string]interface{}{
				"program": r.Layout.Program,
				"sudo":    r.Layout.RestartWithSudo,
			})
			if err != nil {
				return err
			}
			_, err = r.Session.RunRemote(command)
			return err
		}},
	}
}

// Release runs build, upload, cleanup and restart in that order. It stops at
// the first failure, so nothing is uploaded after a failed build and the
// service is never restarted with a partial upload. A failed cleanup is
// only reported.
func (r *Releaser) Release() error {
	if r.Session == nil {
		return ErrNoSession
	}

	if r.Builder == nil {
		return ErrNoBuilder
	}

	return runSteps(OperationRelease, r.Steps(), r.Observer)
}
