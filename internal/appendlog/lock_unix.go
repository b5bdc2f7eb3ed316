//go:build unix

package appendlog

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func acquire(lockPath string) (*os.File, error) {
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", lockPath, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, &AlreadyLockedError{Path: lockPath, PID: readPID(lockPath)}
		}
		return nil, fmt.Errorf("flock %s: %w", lockPath, err)
	}
	writePID(f)
	return f, nil
}

func release(f *os.File, _ string) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
