//go:build !unix

package appendlog

import (
	"errors"
	"fmt"
	"os"
)

// Without flock the lock file's existence is the lock. A crashed process
// leaves it behind and it must be removed by hand.
func acquire(lockPath string) (*os.File, error) {
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, &AlreadyLockedError{Path: lockPath, PID: readPID(lockPath)}
		}
		return nil, fmt.Errorf("create lock %s: %w", lockPath, err)
	}
	writePID(f)
	return f, nil
}

func release(f *os.File, lockPath string) error {
	err := f.Close()
	if rerr := os.Remove(lockPath); err == nil {
		err = rerr
	}
	return err
}
