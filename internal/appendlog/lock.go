package appendlog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrAlreadyLocked is matched by AlreadyLockedError.
var ErrAlreadyLocked = errors.New("already locked")

// AlreadyLockedError reports the process holding a lock.
type AlreadyLockedError struct {
	Path string
	PID  int
}

func (e *AlreadyLockedError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("%s is locked by process %d", e.Path, e.PID)
	}
	return fmt.Sprintf("%s is locked by another process", e.Path)
}

// Is makes errors.Is(err, ErrAlreadyLocked) hold.
func (e *AlreadyLockedError) Is(target error) bool {
	return target == ErrAlreadyLocked
}

// Lock is an exclusive hold on a data file. The lock lives in a sibling
// file named <path>.lock which records the owner's pid.
type Lock struct {
	path string
	file *os.File
}

// LockPath returns the lock file name used for path.
func LockPath(path string) string {
	return path + ".lock"
}

// NewLock takes an exclusive, non-blocking lock on path, creating the data
// file if it does not exist. Contention fails with *AlreadyLockedError.
func NewLock(path string) (*Lock, error) {
	f, err := acquire(LockPath(path))
	if err != nil {
		return nil, err
	}
	data, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o600)
	if err != nil {
		release(f, LockPath(path))
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	data.Close()
	return &Lock{path: path, file: f}, nil
}

// Path returns the locked data file.
func (l *Lock) Path() string {
	return l.path
}

// Unlock releases the lock. The data file is left in place.
func (l *Lock) Unlock() error {
	if l.file == nil {
		return nil
	}
	err := release(l.file, LockPath(l.path))
	l.file = nil
	return err
}

func writePID(f *os.File) {
	if err := f.Truncate(0); err != nil {
		return
	}
	f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	f.Sync()
}

func readPID(lockPath string) int {
	raw, err := os.ReadFile(lockPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0
	}
	return pid
}
