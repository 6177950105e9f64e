package deploy

import (
	"hypedeploy/internal/templates"
)

// Provisioner prepares a host for its first release. Every step is safe to
// repeat, so provisioning an already provisioned host changes nothing.
type Provisioner struct {
	Session  RemoteSession
	Layout   Layout
	Observer Observer
}

func NewProvisioner(session RemoteSession, layout Layout, observer Observer) *Provisioner {
	return &Provisioner{
		Session:  session,
		Layout:   layout,
		Observer: observer,
	}
}

func (p *Provisioner) mkdir(dir string) func() error {
	return func() error {
		command, err := templates.RenderScript(templates.MkdirScriptPath, map[string]interface{}{"dir": dir})
		if err != nil {
			return err
		}
		_, err = p.Session.RunRemote(command)
		return err
	}
}

func (p *Provisioner) Steps() []Step {
	return []Step{
		{Name: StepMkdirServiceDir, Run: p.mkdir(p.Layout.ServiceDir)},
		{Name: StepMkdirLogDir, Run: p.mkdir(p.Layout.LogDir)},
		{Name: StepUploadSupervisorConfig, Run: func() error {
			return p.Session.SyncPath(p.Layout.SupervisorConfigLocal, p.Layout.SupervisorConfigRemote)
		}},
	}
}

// Provision creates the service and log directories and uploads the
// supervisor config. Nothing is rolled back when a later step fails.
func (p *Provisioner) Provision() error {
	if p.Session == nil {
		return ErrNoSession
	}

	return runSteps(OperationProvision, p.Steps(), p.Observer)
}
