// Package xdg resolves XDG base directories for flopen's runtime artifacts
// (PID files, lock files, CLI configuration), with FLOPEN_XDG_* overrides.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"

	adrg "github.com/adrg/xdg"
)

// appSubdir is appended to every base directory.
const appSubdir = "flopen"

// GetXDGRuntimeDir returns the flopen runtime directory (for PID and lock
// files), creating it with the given permissions. FLOPEN_XDG_RUNTIME_DIR
// takes precedence over XDG_RUNTIME_DIR.
func GetXDGRuntimeDir(subpath string, perm os.FileMode) (string, error) {
	adrg.Reload()
	return ensureDir(override("FLOPEN_XDG_RUNTIME_DIR", adrg.RuntimeDir), subpath, perm)
}

// GetXDGStateDir returns the flopen state directory, creating it with the
// given permissions. FLOPEN_XDG_STATE_HOME takes precedence over
// XDG_STATE_HOME.
func GetXDGStateDir(subpath string, perm os.FileMode) (string, error) {
	adrg.Reload()
	return ensureDir(override("FLOPEN_XDG_STATE_HOME", adrg.StateHome), subpath, perm)
}

// GetXDGConfigDir returns the flopen configuration directory, creating it
// with the given permissions. FLOPEN_XDG_CONFIG_HOME takes precedence over
// XDG_CONFIG_HOME.
func GetXDGConfigDir(subpath string, perm os.FileMode) (string, error) {
	adrg.Reload()
	return ensureDir(override("FLOPEN_XDG_CONFIG_HOME", adrg.ConfigHome), subpath, perm)
}

// override returns the value of env when set, falling back to base.
func override(env, base string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return base
}

// ensureDir joins base/flopen/subpath and creates it.
func ensureDir(base, subpath string, perm os.FileMode) (string, error) {
	dir := filepath.Join(base, appSubdir, subpath)
	if err := os.MkdirAll(dir, perm); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}
