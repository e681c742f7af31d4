package exec

import (
	"errors"
	"fmt"
	"os"

	errUtils "github.com/cloudposse/flopen/errors"
	"github.com/cloudposse/flopen/pkg/flopen"
	log "github.com/cloudposse/flopen/pkg/logger"
	"github.com/cloudposse/flopen/pkg/pidfile"
)

// ExecuteCheck probes whether the lock at path is currently held, without
// ever creating the file or waiting. A free lock (including a missing
// file, which nobody can hold) exits zero; a held lock exits with the
// conflict code. The probe lock is dropped immediately, so the check is
// only a snapshot.
func ExecuteCheck(path string, conflictExitCode int) error {
	if conflictExitCode == 0 {
		conflictExitCode = DefaultConflictExitCode
	}

	f, err := flopen.TryOpenAndLock(path, os.O_RDWR, 0)
	switch {
	case err == nil:
		releaseLock(f, path)
		fmt.Printf("%s: free\n", path)
		return nil
	case errors.Is(err, errUtils.ErrWouldBlock):
		// Lock files that double as PID files name their holder.
		if pid := pidfile.ReadPid(path); pid != 0 {
			fmt.Printf("%s: locked by pid %d\n", path, pid)
		} else {
			fmt.Printf("%s: locked\n", path)
		}
		return errUtils.WithExitCode(err, conflictExitCode)
	case errors.Is(err, os.ErrNotExist):
		log.Trace("Lock file does not exist, reporting free", "path", path)
		fmt.Printf("%s: free\n", path)
		return nil
	default:
		return err
	}
}
