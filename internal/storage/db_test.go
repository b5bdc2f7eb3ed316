package storage

import (
	"bytes"
	"errors"
	"testing"
)

// testDB runs the shared test suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := db.Put([]byte("block/1"), []byte("payload")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		val, err := db.Get([]byte("block/1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("payload")) {
			t.Errorf("Get() = %q, want %q", val, "payload")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := db.Get([]byte("missing"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() missing error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Has", func(t *testing.T) {
		db.Put([]byte("present"), []byte("x"))
		ok, err := db.Has([]byte("present"))
		if err != nil || !ok {
			t.Errorf("Has(present) = %v, %v", ok, err)
		}
		ok, err = db.Has([]byte("absent"))
		if err != nil || ok {
			t.Errorf("Has(absent) = %v, %v", ok, err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		db.Put([]byte("ow"), []byte("first"))
		db.Put([]byte("ow"), []byte("second"))
		val, err := db.Get([]byte("ow"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("second")) {
			t.Errorf("Get() after overwrite = %q", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db.Put([]byte("del"), []byte("value"))
		if err := db.Delete([]byte("del")); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := db.Get([]byte("del")); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
		}
		if err := db.Delete([]byte("never-existed")); err != nil {
			t.Errorf("Delete() nonexistent key error: %v", err)
		}
	})

	t.Run("ReturnedValueIsCopy", func(t *testing.T) {
		in := []byte("abc")
		db.Put([]byte("copy"), in)
		in[0] = 'z'
		val, _ := db.Get([]byte("copy"))
		if string(val) != "abc" {
			t.Errorf("stored value aliased caller slice: %q", val)
		}
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		db.Put([]byte("ord/c"), []byte("3"))
		db.Put([]byte("ord/a"), []byte("1"))
		db.Put([]byte("ord/b"), []byte("2"))
		db.Put([]byte("other/x"), []byte("4"))

		var keys []string
		err := db.ForEach([]byte("ord/"), func(key, value []byte) error {
			keys = append(keys, string(key))
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		want := []string{"ord/a", "ord/b", "ord/c"}
		if len(keys) != len(want) {
			t.Fatalf("ForEach() keys = %v, want %v", keys, want)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Fatalf("ForEach() keys = %v, want %v", keys, want)
			}
		}
	})

	t.Run("Batch", func(t *testing.T) {
		batcher, ok := db.(Batcher)
		if !ok {
			t.Skip("db does not support batches")
		}
		db.Put([]byte("batch/gone"), []byte("x"))

		b := batcher.NewBatch()
		b.Put([]byte("batch/1"), []byte("one"))
		b.Put([]byte("batch/2"), []byte("two"))
		b.Delete([]byte("batch/gone"))

		if ok, _ := db.Has([]byte("batch/1")); ok {
			t.Fatal("batch write visible before Commit()")
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit() error: %v", err)
		}
		if val, err := db.Get([]byte("batch/2")); err != nil || string(val) != "two" {
			t.Errorf("Get(batch/2) = %q, %v", val, err)
		}
		if ok, _ := db.Has([]byte("batch/gone")); ok {
			t.Error("batch delete not applied")
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_Persistence(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	db1.Put([]byte("persist"), []byte("data"))
	db1.Close()

	db2, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer db2.Close()

	val, err := db2.Get([]byte("persist"))
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if !bytes.Equal(val, []byte("data")) {
		t.Errorf("persisted value = %q, want %q", val, "data")
	}
}
