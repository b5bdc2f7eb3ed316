package appendlog

import (
	"bytes"
	"fmt"
	"os"
)

// Writer appends records to a locked file.
type Writer struct {
	lock *Lock
	file *os.File
	buf  bytes.Buffer
}

// OpenWriter opens the locked file for appending.
func OpenWriter(lock *Lock) (*Writer, error) {
	f, err := os.OpenFile(lock.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s for append: %w", lock.path, err)
	}
	return &Writer{lock: lock, file: f}, nil
}

// Append writes one record and syncs it to disk before returning.
func (w *Writer) Append(payload []byte) error {
	w.buf.Reset()
	if err := WriteRecord(&w.buf, payload); err != nil {
		return err
	}
	if _, err := w.file.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("append to %s: %w", w.lock.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", w.lock.path, err)
	}
	return nil
}

// Close closes the file and hands the lock back to the caller.
func (w *Writer) Close() *Lock {
	w.file.Close()
	return w.lock
}
