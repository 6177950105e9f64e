package commands

import (
	"hypedeploy/internal/build"
	"hypedeploy/internal/deploy"
	"hypedeploy/internal/logger"

	"github.com/spf13/cobra"
)

var ReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build, upload and restart the service",
	Long: `Cross-compile the service, upload the binary, index.html and static/ to the host, remove the local build and restart the service through supervisorctl.

The release stops at the first failing step: nothing is uploaded after a failed build and the service is not restarted after a failed upload.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		target, err := build.ParseTarget(configuration.Target)

		if err != nil {
			return err
		}

		builder, err := build.New(configuration.BuildTool, configuration.SourceDir, configuration.Artifact)

		if err != nil {
			return err
		}

		creds, err := buildSSHCredentials(configuration)

		if err != nil {
			return err
		}

		op := startOperation(deploy.OperationRelease, creds.Host)

		session, err := op.connect(creds, cmd.ErrOrStderr())

		if err != nil {
			return op.finish(err)
		}

		defer session.Close()

		err = deploy.NewReleaser(session, builder, target, layoutFromConfig(configuration), op.observer).Release()

		if err != nil {
			return op.finish(err)
		}

		logger.Info("✅ %s released to %s and restarted", configuration.Program, creds.Host)

		return op.finish(nil)
	},
}
