package cmd

import (
	"github.com/spf13/cobra"

	e "github.com/cloudposse/flopen/internal/exec"
)

var checkCmd = &cobra.Command{
	Use:   "check <lock-file>",
	Short: "Report whether a lock file is currently held",
	Long: `This command probes the lock without waiting and without creating the file.
It exits zero when the lock is free (a missing lock file counts as free:
nothing can hold it) and with the conflict exit code when it is held. The
answer is a snapshot; the lock may change hands right after the probe.`,
	Example: "flopen check /var/run/flopend.pid && echo 'daemon is not running'",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conflictExitCode, err := cmd.Flags().GetInt("conflict-exit-code")
		if err != nil {
			return err
		}
		return e.ExecuteCheck(args[0], conflictExitCode)
	},
}

func init() {
	checkCmd.Flags().IntP("conflict-exit-code", "E", e.DefaultConflictExitCode, "Exit code to use when the lock is held")

	RootCmd.AddCommand(checkCmd)
}
