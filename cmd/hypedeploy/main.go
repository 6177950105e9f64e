package main

import (
	"fmt"
	"os"

	"hypedeploy/cmd/hypedeploy/commands"
	"hypedeploy/internal/logger"
	"hypedeploy/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hypedeploy",
	Short: "Provision and release hypeliberator-go on its host",
	Long: `hypedeploy ships hypeliberator-go to a single host over SSH and restarts it under supervisord.

- provision – create the service and log directories and upload the supervisor config
- release   – cross-compile the binary, upload it with index.html and static/, remove the local build and restart the service

The target host and SSH settings come from deploy.yaml, the environment (.env is loaded too) and ~/.ssh/config.
Every run is recorded in a local journal, see 'hypedeploy history'.
`,
	Version:       fmt.Sprintf("%s (commit: %s, date: %s, arch: %s, os: %s)", version.Version, version.Commit, version.Date, version.Arch, version.OS),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	commands.RegisterCommands(rootCmd)

	err := rootCmd.Execute()

	commands.Close()

	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
