package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	e "github.com/cloudposse/flopen/internal/exec"
)

var runCmd = &cobra.Command{
	Use:   "run <lock-file> -- <command> [args...]",
	Short: "Run a command while holding an exclusive lock on a file",
	Long: `This command acquires an exclusive lock on the lock file, runs the given
command while holding it, and releases the lock when the command exits. By
default it waits for the lock indefinitely; use --nonblock to fail fast or
--timeout to give up after a while. The command's exit code is propagated.`,
	Example: "flopen run /var/lock/backup.lock -- rsync -a /src /dst\n" +
		"flopen run --nonblock --conflict-exit-code 75 nightly.lock -- ./nightly.sh\n" +
		"flopen run --timeout 30s deploy.lock -- make deploy",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(cmd.Flags(), args)
		if err != nil {
			return err
		}
		return e.ExecuteRun(cmd.Context(), opts)
	},
}

// runOptions collects the run flags into exec options.
func runOptions(flags *pflag.FlagSet, args []string) (*e.Options, error) {
	nonblock, err := flags.GetBool("nonblock")
	if err != nil {
		return nil, err
	}
	timeout, err := flags.GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	noCreate, err := flags.GetBool("no-create")
	if err != nil {
		return nil, err
	}
	conflictExitCode, err := flags.GetInt("conflict-exit-code")
	if err != nil {
		return nil, err
	}
	mode, err := flags.GetString("mode")
	if err != nil {
		return nil, err
	}
	perm, err := parseMode(mode)
	if err != nil {
		return nil, err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	return &e.Options{
		LockPath:         args[0],
		Command:          args[1],
		Args:             args[2:],
		NonBlocking:      nonblock,
		Timeout:          timeout,
		NoCreate:         noCreate,
		Perm:             perm,
		ConflictExitCode: conflictExitCode,
		DryRun:           dryRun,
	}, nil
}

// parseMode reads an octal permission string such as 0644.
func parseMode(mode string) (os.FileMode, error) {
	perm, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", mode, err)
	}
	return os.FileMode(perm), nil
}

func init() {
	runCmd.Flags().BoolP("nonblock", "n", false, "Fail (with the conflict exit code) instead of waiting when the lock is held")
	runCmd.Flags().DurationP("timeout", "w", 0, "Give up waiting for the lock after this long, e.g. 30s or 5m")
	runCmd.Flags().Bool("no-create", false, "Fail when the lock file does not exist instead of creating it")
	runCmd.Flags().IntP("conflict-exit-code", "E", e.DefaultConflictExitCode, "Exit code to use when the lock cannot be acquired")
	runCmd.Flags().String("mode", "0644", "Permissions (octal) for the lock file when it is created")
	runCmd.Flags().Bool("dry-run", false, "Acquire and release the lock without running the command")
	runCmd.MarkFlagsMutuallyExclusive("nonblock", "timeout")

	RootCmd.AddCommand(runCmd)
}
