package appendlog

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func testLock(t *testing.T) *Lock {
	t.Helper()
	lock, err := NewLock(filepath.Join(t.TempDir(), "LOG"))
	if err != nil {
		t.Fatalf("NewLock: %v", err)
	}
	t.Cleanup(func() { lock.Unlock() })
	return lock
}

func appendAll(t *testing.T, lock *Lock, records ...string) *Lock {
	t.Helper()
	w, err := OpenWriter(lock)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	for _, rec := range records {
		if err := w.Append([]byte(rec)); err != nil {
			t.Fatalf("Append(%q): %v", rec, err)
		}
	}
	return w.Close()
}

func readAll(t *testing.T, lock *Lock) ([]string, error) {
	t.Helper()
	r, err := OpenReader(lock)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	var out []string
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, string(rec))
	}
}

func TestWriteThenRead(t *testing.T) {
	lock := testLock(t)
	lock = appendAll(t, lock, "first", "", "third")

	got, err := readAll(t, lock)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"first", "", "third"}
	if len(got) != len(want) {
		t.Fatalf("records = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmptyFileIsEOF(t *testing.T) {
	lock := testLock(t)
	got, err := readAll(t, lock)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty file: records=%q err=%v", got, err)
	}
}

func TestReopenWriterAppends(t *testing.T) {
	lock := testLock(t)
	lock = appendAll(t, lock, "a")

	r, err := OpenReader(lock)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	lock = appendAll(t, r.Close(), "b")

	got, _ := readAll(t, lock)
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("records = %q, want [a b]", got)
	}
}

func TestLockContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOG")
	lock, err := NewLock(path)
	if err != nil {
		t.Fatalf("NewLock: %v", err)
	}

	_, err = NewLock(path)
	if !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("second NewLock error = %v, want ErrAlreadyLocked", err)
	}
	var locked *AlreadyLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("error %T is not *AlreadyLockedError", err)
	}
	if locked.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", locked.PID, os.Getpid())
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	again, err := NewLock(path)
	if err != nil {
		t.Fatalf("NewLock after Unlock: %v", err)
	}
	again.Unlock()
}

func TestNewLockCreatesDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending")
	lock, err := NewLock(path)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Unlock()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("data file not created: %v", err)
	}
}

func TestTruncatedPayload(t *testing.T) {
	lock := testLock(t)
	lock = appendAll(t, lock, "complete", "will be cut")

	info, err := os.Stat(lock.Path())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(lock.Path(), info.Size()-3); err != nil {
		t.Fatal(err)
	}

	got, err := readAll(t, lock)
	if !errors.Is(err, ErrCorruptedRecord) {
		t.Fatalf("err = %v, want ErrCorruptedRecord", err)
	}
	if len(got) != 1 || got[0] != "complete" {
		t.Fatalf("records before corruption = %q", got)
	}
}

func TestTruncatedHeader(t *testing.T) {
	var buf bytes.Buffer
	WriteRecord(&buf, []byte("x"))
	_, err := ReadRecord(bytes.NewReader(buf.Bytes()[:5]))
	if !errors.Is(err, ErrCorruptedRecord) {
		t.Fatalf("err = %v, want ErrCorruptedRecord", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecord(&buf, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF

	_, err := ReadRecord(bytes.NewReader(raw))
	if !errors.Is(err, ErrCorruptedRecord) {
		t.Fatalf("err = %v, want ErrCorruptedRecord", err)
	}
}

func TestOversizedLength(t *testing.T) {
	raw := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}
	_, err := ReadRecord(bytes.NewReader(raw))
	if !errors.Is(err, ErrCorruptedRecord) {
		t.Fatalf("err = %v, want ErrCorruptedRecord", err)
	}
}

func TestReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOG")
	lock, err := NewLock(path)
	if err != nil {
		t.Fatal(err)
	}
	appendAll(t, lock, "one", "two").Unlock()

	recs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 || string(recs[0]) != "one" {
		t.Fatalf("ReadAll = %q", recs)
	}
}
