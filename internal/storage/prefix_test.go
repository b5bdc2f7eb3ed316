package storage

import (
	"errors"
	"fmt"
	"testing"
)

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	blocks := NewPrefixDB(inner, []byte("b/"))
	index := NewPrefixDB(inner, []byte("i/"))

	if err := blocks.Put([]byte("key"), []byte("block")); err != nil {
		t.Fatal(err)
	}
	if err := index.Put([]byte("key"), []byte("location")); err != nil {
		t.Fatal(err)
	}

	got, err := blocks.Get([]byte("key"))
	if err != nil || string(got) != "block" {
		t.Fatalf("blocks.Get = %q, %v", got, err)
	}
	got, err = index.Get([]byte("key"))
	if err != nil || string(got) != "location" {
		t.Fatalf("index.Get = %q, %v", got, err)
	}
	raw, err := inner.Get([]byte("i/key"))
	if err != nil || string(raw) != "location" {
		t.Fatalf("inner.Get(i/key) = %q, %v", raw, err)
	}
	if _, err := blocks.Get([]byte("i/key")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blocks sees index key: %v", err)
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	db := NewPrefixDB(NewMemory(), []byte("pre/"))
	db.Put([]byte("u/k1"), []byte("v1"))
	db.Put([]byte("u/k2"), []byte("v2"))
	db.Put([]byte("x/k3"), []byte("v3"))

	var keys []string
	err := db.ForEach([]byte("u/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if len(keys) != 2 || keys[0] != "u/k1" || keys[1] != "u/k2" {
		t.Fatalf("ForEach keys = %v, want [u/k1 u/k2]", keys)
	}

	n, err := db.Count()
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v; want 3", n, err)
	}
}

func TestPrefixDB_ForEachStopEarly(t *testing.T) {
	db := NewPrefixDB(NewMemory(), []byte("p/"))
	for i := 0; i < 10; i++ {
		db.Put([]byte(fmt.Sprintf("k%d", i)), []byte("v"))
	}

	stop := errors.New("stop")
	count := 0
	err := db.ForEach(nil, func(_, _ []byte) error {
		count++
		if count == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("ForEach err = %v, want stop", err)
	}
	if count != 3 {
		t.Fatalf("ForEach called %d times, want 3", count)
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	inner := NewMemory()
	a := NewPrefixDB(inner, []byte("a/"))
	b := NewPrefixDB(inner, []byte("b/"))

	a.Put([]byte("k1"), []byte("v1"))
	a.Put([]byte("k2"), []byte("v2"))
	b.Put([]byte("k1"), []byte("other"))

	if err := a.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n, _ := a.Count(); n != 0 {
		t.Fatalf("a has %d keys after DeleteAll", n)
	}
	if got, err := b.Get([]byte("k1")); err != nil || string(got) != "other" {
		t.Fatalf("b.Get after a.DeleteAll = %q, %v", got, err)
	}
}

func TestPrefixDB_Batch(t *testing.T) {
	for name, inner := range map[string]DB{
		"memory": NewMemory(),
		"direct": plainDB{NewMemory()},
	} {
		t.Run(name, func(t *testing.T) {
			db := NewPrefixDB(inner, []byte("ns/"))
			db.Put([]byte("old"), []byte("x"))

			b := db.NewBatch()
			b.Put([]byte("new"), []byte("y"))
			b.Delete([]byte("old"))
			if err := b.Commit(); err != nil {
				t.Fatalf("Commit: %v", err)
			}

			if got, err := inner.Get([]byte("ns/new")); err != nil || string(got) != "y" {
				t.Fatalf("inner.Get(ns/new) = %q, %v", got, err)
			}
			if ok, _ := db.Has([]byte("old")); ok {
				t.Fatal("old key survived batch delete")
			}
		})
	}
}

// plainDB hides the Batcher implementation of the wrapped DB.
type plainDB struct{ DB }
