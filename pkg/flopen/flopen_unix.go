//go:build unix

package flopen

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	errUtils "github.com/cloudposse/flopen/errors"
)

// lockDisposition classifies a flock(2) failure.
type lockDisposition int

const (
	// lockRetry: interrupted by a signal; resume waiting.
	lockRetry lockDisposition = iota
	// lockWouldBlock: held by another process (non-blocking mode only).
	lockWouldBlock
	// lockFatal: anything else; propagate to the caller.
	lockFatal
)

// classifyLockError maps a raw flock error to its disposition. The policy
// lives here, separate from the loop, so it can be tested on its own.
//
// EWOULDBLOCK and EAGAIN are both checked: older Unix systems used distinct
// codes for them, and the GNU libc manual still recommends treating the two
// as the same.
func classifyLockError(err error) lockDisposition {
	switch {
	case errors.Is(err, unix.EINTR):
		return lockRetry
	case errors.Is(err, unix.EWOULDBLOCK), errors.Is(err, unix.EAGAIN):
		return lockWouldBlock
	default:
		return lockFatal
	}
}

// lockFile takes a whole-file exclusive advisory lock on the open handle.
// In blocking mode it waits in the kernel until the lock is granted,
// resuming the wait when a delivered signal interrupts it. In non-blocking
// mode a contended lock surfaces as ErrWouldBlock immediately.
func lockFile(f *os.File, mode lockMode) error {
	how := unix.LOCK_EX
	if mode == lockNonBlocking {
		how |= unix.LOCK_NB
	}

	fd := int(f.Fd())
	for {
		err := unix.Flock(fd, how)
		if err == nil {
			return nil
		}
		switch classifyLockError(err) {
		case lockRetry:
			continue
		case lockWouldBlock:
			return fmt.Errorf("%w: %s", errUtils.ErrWouldBlock, f.Name())
		default:
			return fmt.Errorf("flock %s: %w", f.Name(), err)
		}
	}
}

// fileIdentity is the (device, inode) pair that names a file on the
// filesystem independently of any path.
type fileIdentity struct {
	dev uint64
	ino uint64
}

// handleIdentity captures the identity of the file behind an open handle.
func handleIdentity(f *os.File) (fileIdentity, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return fileIdentity{}, &os.PathError{Op: "fstat", Path: f.Name(), Err: err}
	}
	return fileIdentity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

// pathIdentity captures the identity of whatever the path currently names.
func pathIdentity(path string) (fileIdentity, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fileIdentity{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return fileIdentity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

// verifyIdentity reports whether the locked handle still is the file the
// path names. The handle's identity is captured once, right after the lock
// was granted, and compared against a fresh lookup of the path. A path that
// no longer exists means the file was deleted after we opened it; a
// different identity means it was replaced. Both are races to retry, not
// errors. Any other stat failure is fatal.
func verifyIdentity(f *os.File, path string) (bool, error) {
	held, err := handleIdentity(f)
	if err != nil {
		return false, err
	}

	current, err := pathIdentity(path)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, err
	}

	return held == current, nil
}
