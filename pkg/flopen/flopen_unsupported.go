//go:build !unix

package flopen

import (
	"os"

	errUtils "github.com/cloudposse/flopen/errors"
)

// flock(2) advisory locks are the only mechanism this module implements;
// other platforms get a clean error instead of a partial emulation.

func lockFile(f *os.File, mode lockMode) error {
	return errUtils.ErrUnsupportedPlatform
}

func verifyIdentity(f *os.File, path string) (bool, error) {
	return false, errUtils.ErrUnsupportedPlatform
}
