package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	errUtils "github.com/cloudposse/flopen/errors"
	"github.com/cloudposse/flopen/pkg/flopen"
	log "github.com/cloudposse/flopen/pkg/logger"
	"github.com/cloudposse/flopen/pkg/retry"
)

// DefaultConflictExitCode is what a busy lock exits with unless overridden,
// matching flock(1).
const DefaultConflictExitCode = 1

const defaultLockPerm os.FileMode = 0o644

// Options describe one locked execution: which file to lock, how long to
// wait for it, and what to run while holding it.
type Options struct {
	LockPath         string
	Command          string
	Args             []string
	NonBlocking      bool
	Timeout          time.Duration
	NoCreate         bool
	Perm             os.FileMode
	ConflictExitCode int
	DryRun           bool
}

func (o *Options) perm() os.FileMode {
	if o.Perm == 0 {
		return defaultLockPerm
	}
	return o.Perm
}

func (o *Options) conflictExitCode() int {
	if o.ConflictExitCode == 0 {
		return DefaultConflictExitCode
	}
	return o.ConflictExitCode
}

// acquireLock takes the exclusive lock according to the options: blocking
// by default, a single attempt with NonBlocking, bounded polling with a
// positive Timeout. Busy locks and exhausted deadlines come back with the
// conflict exit code attached.
func acquireLock(ctx context.Context, opts *Options) (*os.File, error) {
	flag := os.O_RDWR
	if !opts.NoCreate {
		flag |= os.O_CREATE
	}

	f, err := lockWithMode(ctx, opts, flag)
	if err != nil {
		switch {
		case errors.Is(err, errUtils.ErrWouldBlock), errors.Is(err, errUtils.ErrLockDeadline):
			return nil, errUtils.WithExitCode(err, opts.conflictExitCode())
		case opts.NoCreate && errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", errUtils.ErrMissingLockFile, opts.LockPath)
		default:
			return nil, err
		}
	}

	log.Trace("Acquired lock", "path", opts.LockPath)
	return f, nil
}

func lockWithMode(ctx context.Context, opts *Options, flag int) (*os.File, error) {
	switch {
	case opts.NonBlocking:
		return flopen.TryOpenAndLock(opts.LockPath, flag, opts.perm())
	case opts.Timeout > 0:
		return pollLock(ctx, opts, flag)
	default:
		return flopen.OpenAndLock(opts.LockPath, flag, opts.perm())
	}
}

// pollLock retries the non-blocking acquisition until the deadline passes.
// flock(2) offers no bounded blocking wait, so a deadline means polling.
func pollLock(ctx context.Context, opts *Options, flag int) (*os.File, error) {
	var f *os.File
	config := retry.PollingConfig(opts.Timeout)

	err := retry.WithPredicate(ctx, &config, func() error {
		var err error
		f, err = flopen.TryOpenAndLock(opts.LockPath, flag, opts.perm())
		return err
	}, retry.RetryOnWouldBlock)
	if err != nil {
		var elapsed retry.MaxElapsedTimeError
		if errors.As(err, &elapsed) || errors.Is(err, errUtils.ErrWouldBlock) {
			return nil, fmt.Errorf("%w: %s after %v", errUtils.ErrLockDeadline, opts.LockPath, opts.Timeout)
		}
		return nil, err
	}

	return f, nil
}

// releaseLock closes the handle, which releases the lock with it.
func releaseLock(f *os.File, path string) {
	if err := f.Close(); err != nil {
		log.Warn("Failed to release lock", "path", path, "error", err)
	}
}
