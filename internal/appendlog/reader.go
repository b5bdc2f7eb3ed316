package appendlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Reader reads records sequentially from a locked file.
type Reader struct {
	lock *Lock
	file *os.File
	r    *bufio.Reader
}

// OpenReader opens the locked file from its first record.
func OpenReader(lock *Lock) (*Reader, error) {
	f, err := os.Open(lock.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", lock.path, err)
	}
	return &Reader{lock: lock, file: f, r: bufio.NewReader(f)}, nil
}

// Next returns the next record payload, io.EOF at the end of the file, or
// an error wrapping ErrCorruptedRecord.
func (r *Reader) Next() ([]byte, error) {
	return ReadRecord(r.r)
}

// Close closes the file and hands the lock back to the caller.
func (r *Reader) Close() *Lock {
	r.file.Close()
	return r.lock
}

// ReadAll locks path, reads every record and releases the lock.
func ReadAll(path string) ([][]byte, error) {
	lock, err := NewLock(path)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	rd, err := OpenReader(lock)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	var out [][]byte
	for {
		rec, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, rec)
	}
}
