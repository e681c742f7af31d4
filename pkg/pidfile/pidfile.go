// Package pidfile manages daemon PID files on top of the flopen primitive,
// following the shape of the BSD pidfile(3) family: open and lock the file
// first, write the PID later, so the window in which a daemon is running but
// its pidfile is empty is observable (and reported) instead of racy.
//
// The lock, not the file content, is the liveness signal. A PID file whose
// owner died is unlocked and can be taken over without any stale-PID
// heuristics.
package pidfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	errUtils "github.com/cloudposse/flopen/errors"
	"github.com/cloudposse/flopen/pkg/flopen"
	log "github.com/cloudposse/flopen/pkg/logger"
	"github.com/cloudposse/flopen/pkg/xdg"
)

const defaultPerm os.FileMode = 0o600

// File is an open, exclusively locked PID file. The lock is held for the
// lifetime of the handle and released by Close or Remove.
type File struct {
	path string
	f    *os.File
}

// BusyError reports that the PID file is locked by another process. Pid is
// the incumbent's PID when it had already been written, zero otherwise.
type BusyError struct {
	Path string
	Pid  int
}

func (e *BusyError) Error() string {
	if e.Pid != 0 {
		return fmt.Sprintf("pidfile %s is locked by pid %d", e.Path, e.Pid)
	}
	return fmt.Sprintf("pidfile %s is locked by another process", e.Path)
}

func (e *BusyError) Unwrap() error {
	return errUtils.ErrPidfileBusy
}

// Open creates (if needed), opens and locks the PID file at path without
// blocking. The file content is left untouched; call Write to record the
// current PID. When the file is locked by another process, Open returns a
// *BusyError carrying the incumbent's PID when one can be read.
func Open(path string, perm os.FileMode) (*File, error) {
	if perm == 0 {
		perm = defaultPerm
	}

	f, err := flopen.TryOpenAndLock(path, os.O_CREATE|os.O_RDWR, perm)
	if err != nil {
		if errors.Is(err, errUtils.ErrWouldBlock) {
			return nil, &BusyError{Path: path, Pid: ReadPid(path)}
		}
		return nil, err
	}

	log.Trace("Acquired pidfile", "path", path)
	return &File{path: path, f: f}, nil
}

// OpenDefault opens the PID file for the named program in the flopen
// runtime directory. See DefaultPath.
func OpenDefault(name string) (*File, error) {
	path, err := DefaultPath(name)
	if err != nil {
		return nil, err
	}
	return Open(path, defaultPerm)
}

// DefaultPath returns the conventional PID file location for the named
// program: <runtime dir>/<name>.pid, falling back to the system temporary
// directory when no runtime directory can be created.
func DefaultPath(name string) (string, error) {
	dir, err := xdg.GetXDGRuntimeDir("", 0o700)
	if err != nil {
		log.Trace("Runtime directory unavailable, using temp dir", "error", err)
		dir = os.TempDir()
	}
	return filepath.Join(dir, name+".pid"), nil
}

// Write records the current process's PID in the file. The content is
// replaced in place through the locked handle; the file is never renamed or
// recreated, so the identity the lock was verified against is preserved.
func (p *File) Write() error {
	return p.WritePid(os.Getpid())
}

// WritePid records the given PID in the file.
func (p *File) WritePid(pid int) error {
	if err := p.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", p.path, err)
	}
	if _, err := p.f.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return p.f.Sync()
}

// Path returns the PID file's path.
func (p *File) Path() string {
	return p.path
}

// Close releases the lock and closes the handle. The file is left in place
// so the path keeps working as a rendezvous point; use Remove to also
// delete it.
func (p *File) Close() error {
	return p.f.Close()
}

// Remove deletes the PID file and releases the lock, in that order: the
// path is unlinked while the lock is still held, so no other process can
// acquire the doomed file in between.
func (p *File) Remove() error {
	rmErr := os.Remove(p.path)
	closeErr := p.f.Close()
	if rmErr != nil {
		return fmt.Errorf("remove %s: %w", p.path, rmErr)
	}
	return closeErr
}

// ReadPid extracts the PID recorded at path, zero when the file is empty,
// missing or unparsable. The incumbent may not have written its PID yet;
// that is not an error.
func ReadPid(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0
	}
	return pid
}
