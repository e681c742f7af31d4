package errors

import "errors"

// Sentinel errors returned by the flopen packages. Callers match them with
// errors.Is; the concrete error chain carries the path and the underlying
// OS error for diagnosis.
var (
	// ErrWouldBlock is returned by the non-blocking entry points when the
	// target file is exclusively locked by another holder.
	ErrWouldBlock = errors.New("file is locked by another process")

	// ErrUnsupportedPlatform is returned on systems without POSIX advisory
	// locks (flock is the only locking mechanism this module implements).
	ErrUnsupportedPlatform = errors.New("file locking is not supported on this platform")

	// ErrLockDeadline is returned when a bounded acquisition gives up
	// because the lock stayed contended for the whole retry budget.
	ErrLockDeadline = errors.New("timed out waiting for file lock")

	// ErrPidfileBusy is returned when a PID file is held by a live process.
	ErrPidfileBusy = errors.New("pidfile is held by another process")

	// ErrMissingLockFile is returned when the lock file does not exist and
	// creating it was not permitted.
	ErrMissingLockFile = errors.New("lock file does not exist")

	// ErrMissingCommand is returned by the CLI when no command to run under
	// the lock was provided.
	ErrMissingCommand = errors.New("a command to execute is required")
)
