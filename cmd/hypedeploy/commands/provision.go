package commands

import (
	"hypedeploy/internal/deploy"
	"hypedeploy/internal/logger"

	"github.com/spf13/cobra"
)

var ProvisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Prepare the host for the first release",
	Long: `Create the service and log directories on the host and upload the supervisor config.

Safe to run again: directories that exist are left alone and an unchanged config is not re-uploaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		creds, err := buildSSHCredentials(configuration)

		if err != nil {
			return err
		}

		op := startOperation(deploy.OperationProvision, creds.Host)

		session, err := op.connect(creds, cmd.ErrOrStderr())

		if err != nil {
			return op.finish(err)
		}

		defer session.Close()

		err = deploy.NewProvisioner(session, layoutFromConfig(configuration), op.observer).Provision()

		if err != nil {
			return op.finish(err)
		}

		logger.Info("✅ %s provisioned on %s", configuration.Program, creds.Host)

		return op.finish(nil)
	},
}
