package exec

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"

	errUtils "github.com/cloudposse/flopen/errors"
	log "github.com/cloudposse/flopen/pkg/logger"
)

// lockPathEnvVar tells the child which lock file its execution is
// serialized on.
const lockPathEnvVar = "FLOPEN_LOCK_PATH"

// ExecuteRun acquires the lock described by the options, runs the command
// with inherited standard streams while holding it, and releases the lock
// when the command finishes. The command's exit code is propagated through
// the returned error.
func ExecuteRun(ctx context.Context, opts *Options) error {
	if opts.Command == "" {
		return errUtils.ErrMissingCommand
	}

	f, err := acquireLock(ctx, opts)
	if err != nil {
		return err
	}
	defer releaseLock(f, opts.LockPath)

	if opts.DryRun {
		log.Info("Dry run: would execute command under lock", "path", opts.LockPath, "command", opts.Command)
		return nil
	}

	cmd := osexec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", lockPathEnvVar, opts.LockPath))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Debug("Executing command under lock", "path", opts.LockPath, "command", cmd.String())

	return cmd.Run()
}
