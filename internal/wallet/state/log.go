package state

import (
	"github.com/Klingon-tech/klingnet-cli/internal/appendlog"
	"github.com/Klingon-tech/klingnet-cli/internal/wallet/lookup"
)

// LogReader reads the entries of a wallet log. It holds the log's lock.
type LogReader struct {
	r *appendlog.Reader
}

// OpenLogReader locks the log at path and reads it from the start. A
// missing log is created empty.
func OpenLogReader(path string) (*LogReader, error) {
	lock, err := appendlog.NewLock(path)
	if err != nil {
		return nil, err
	}
	r, err := appendlog.OpenReader(lock)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return &LogReader{r: r}, nil
}

// Next returns the next entry, or io.EOF after the last one.
func (lr *LogReader) Next() (Entry[lookup.Addressing], error) {
	raw, err := lr.r.Next()
	if err != nil {
		return Entry[lookup.Addressing]{}, err
	}
	return DecodeEntry[lookup.Addressing](raw)
}

// Writer turns the reader into a writer appending to the same log,
// keeping the lock.
func (lr *LogReader) Writer() (*LogWriter, error) {
	lock := lr.r.Close()
	w, err := appendlog.OpenWriter(lock)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return &LogWriter{w: w}, nil
}

// Close releases the lock.
func (lr *LogReader) Close() error {
	return lr.r.Close().Unlock()
}

// LogWriter appends entries to a wallet log. It holds the log's lock.
type LogWriter struct {
	w *appendlog.Writer
}

// OpenLogWriter locks the log at path for appending.
func OpenLogWriter(path string) (*LogWriter, error) {
	lock, err := appendlog.NewLock(path)
	if err != nil {
		return nil, err
	}
	w, err := appendlog.OpenWriter(lock)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return &LogWriter{w: w}, nil
}

// Append durably writes e.
func (lw *LogWriter) Append(e Entry[lookup.Addressing]) error {
	raw, err := e.Encode()
	if err != nil {
		return err
	}
	return lw.w.Append(raw)
}

// Close releases the lock.
func (lw *LogWriter) Close() error {
	return lw.w.Close().Unlock()
}

// ReadLog returns every entry of the log at path.
func ReadLog(path string) ([]Entry[lookup.Addressing], error) {
	recs, err := appendlog.ReadAll(path)
	if err != nil {
		return nil, err
	}
	out := make([]Entry[lookup.Addressing], 0, len(recs))
	for _, raw := range recs {
		e, err := DecodeEntry[lookup.Addressing](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
