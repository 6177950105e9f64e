package commands

import (
	"fmt"
	"io"
	"time"

	"hypedeploy/internal/journal"

	"github.com/spf13/cobra"
)

var historyLimit = 10

var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent provision and release runs",
	Long:  `Show recent provision and release runs recorded in the local journal, newest first, with the outcome of every step.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if journalRepository == nil {
			return fmt.Errorf("journal is not available at %s", configuration.JournalPath)
		}

		runs, err := journalRepository.ListRuns(historyLimit)

		if err != nil {
			return err
		}

		printRuns(cmd.OutOrStdout(), runs)

		return nil
	},
}

func printRuns(stdOut io.Writer, runs []*journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintf(stdOut, "No runs recorded yet\n")
		return
	}

	for _, run := range runs {
		outcome := string(run.Status)
		if run.Status == journal.RunStatusFailed && run.FailedStep != "" {
			outcome = fmt.Sprintf("failed at %s", run.FailedStep)
		}

		fmt.Fprintf(stdOut, "%s  %-9s  %s  %s  (%s)\n", run.StartedAt.Local().Format(time.DateTime), run.Operation, run.Host, outcome, run.ID)

		stepErrorShown := false

		for _, step := range run.Steps {
			fmt.Fprintf(stdOut, "    %d. %-24s %-6s %s\n", step.Seq, step.Name, step.Status, time.Duration(step.DurationMS)*time.Millisecond)

			if step.Error != "" {
				fmt.Fprintf(stdOut, "       %s\n", step.Error)
				stepErrorShown = stepErrorShown || step.Status == journal.StepStatusFailed
			}
		}

		if run.Error != "" && !stepErrorShown {
			fmt.Fprintf(stdOut, "    %s\n", run.Error)
		}
	}
}

func init() {
	HistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
}
