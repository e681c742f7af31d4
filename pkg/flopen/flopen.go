// Package flopen reliably opens and exclusively locks a file, for use with
// lock files, PID files, spool files, mailboxes and other files that
// synchronize cooperating processes.
//
// It implements the algorithm of the BSD flopen(3) function: open the file,
// take a whole-file exclusive advisory lock on it, then verify that the path
// still names the file that was opened. Without the verification step there
// is a window between open(2) and flock(2) in which another process can
// delete the file and create a new one at the same path; the caller would
// then hold a perfectly valid lock on a file that no other process can reach,
// which is useless for synchronization. When the check fails, the stale
// handle is closed (releasing its lock) and the whole sequence starts over.
//
// The returned *os.File is exclusively locked and identity-verified at the
// moment it is returned. Closing it releases the lock. The lock is advisory:
// only processes that also acquire locks on the file observe it.
package flopen

import (
	"os"

	log "github.com/cloudposse/flopen/pkg/logger"
)

// lockMode selects between waiting for the lock and failing fast.
type lockMode int

const (
	lockBlocking lockMode = iota
	lockNonBlocking
)

// openFunc produces a fresh handle for the target path. It is invoked once
// per acquisition attempt and must be safe to call repeatedly; os.OpenFile
// with a fixed flag set satisfies this.
type openFunc func() (*os.File, error)

// OpenAndLock opens the file at path with the given flags and permissions
// and acquires an exclusive advisory lock on it, blocking until the lock
// becomes available. If the file is deleted or replaced while waiting, the
// acquisition transparently starts over, so a successful return always
// refers to the file currently reachable at path.
//
// flag and perm have os.OpenFile semantics; pass os.O_CREATE to create the
// file when it does not exist. Errors from opening the file (permissions,
// missing directories, os.O_EXCL collisions) are returned immediately and
// never retried.
func OpenAndLock(path string, flag int, perm os.FileMode) (*os.File, error) {
	return openAndLock(path, opener(path, flag, perm), lockBlocking)
}

// TryOpenAndLock is the non-blocking variant of OpenAndLock. When the lock
// is held elsewhere it returns an error wrapping ErrWouldBlock (from the
// flopen/errors package) instead of waiting. Delete/recreate races are
// still retried: they are unrelated to lock contention and resolve in
// bounded time.
func TryOpenAndLock(path string, flag int, perm os.FileMode) (*os.File, error) {
	return openAndLock(path, opener(path, flag, perm), lockNonBlocking)
}

// opener curries os.OpenFile into an openFunc for the retry loop.
func opener(path string, flag int, perm os.FileMode) openFunc {
	return func() (*os.File, error) {
		return os.OpenFile(path, flag, perm)
	}
}

// openAndLock drives the open -> lock -> verify sequence, discarding the
// handle and starting over whenever the path stopped naming the file that
// was opened. The loop is deliberately iterative and unbounded: every
// iteration performs real OS work, and the retry only repeats while other
// processes keep replacing the file.
func openAndLock(path string, open openFunc, mode lockMode) (*os.File, error) {
	for {
		f, err := open()
		if err != nil {
			return nil, err
		}

		if err := lockFile(f, mode); err != nil {
			// Contention and lock failures are terminal; the caller
			// decides whether to try again.
			discard(f, path)
			return nil, err
		}

		match, err := verifyIdentity(f, path)
		if err != nil {
			discard(f, path)
			return nil, err
		}
		if match {
			return f, nil
		}

		// The path was deleted or replaced between open and lock. The
		// locked handle refers to the old file, which nobody can reach
		// anymore; drop it (releasing the lock) and start over.
		log.Trace("Lock target replaced during acquisition, retrying", "path", path)
		discard(f, path)
	}
}

// discard closes a handle that will not be returned to the caller. Closing
// also releases any lock held on it, so a later attempt (ours or another
// process's) is not blocked by a stale holder.
func discard(f *os.File, path string) {
	if err := f.Close(); err != nil {
		log.Trace("Failed to close discarded handle", "error", err, "path", path)
	}
}
