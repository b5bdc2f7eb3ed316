package storage

// PrefixDB wraps a DB and prepends a fixed prefix to all keys, giving each
// kind of record (blocks, index entries) its own namespace.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB creates a new PrefixDB wrapping inner with the given prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &PrefixDB{inner: inner, prefix: p}
}

func (p *PrefixDB) prefixed(key []byte) []byte {
	out := make([]byte, len(p.prefix)+len(key))
	copy(out, p.prefix)
	copy(out[len(p.prefix):], key)
	return out
}

// Get retrieves a value by key.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(p.prefixed(key))
}

// Put stores a key-value pair.
func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(p.prefixed(key), value)
}

// Delete removes a key.
func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(p.prefixed(key))
}

// Has checks if a key exists.
func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(p.prefixed(key))
}

// ForEach iterates over keys with the given prefix inside the namespace.
// Keys are passed to fn with the namespace prefix stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return p.inner.ForEach(p.prefixed(prefix), func(key, value []byte) error {
		return fn(key[len(p.prefix):], value)
	})
}

// Count returns the number of keys in the namespace.
func (p *PrefixDB) Count() (int, error) {
	n := 0
	err := p.inner.ForEach(p.prefix, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// DeleteAll removes all keys under this namespace from the inner DB.
func (p *PrefixDB) DeleteAll() error {
	var keys [][]byte
	err := p.inner.ForEach(p.prefix, func(key, _ []byte) error {
		keys = append(keys, append([]byte(nil), key...))
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := p.inner.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the outer DB manages its own lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch creates a batch inside the namespace. It is atomic when the
// inner DB is a Batcher.
func (p *PrefixDB) NewBatch() Batch {
	if batcher, ok := p.inner.(Batcher); ok {
		return &prefixBatch{inner: batcher.NewBatch(), p: p}
	}
	return &directBatch{db: p}
}

type prefixBatch struct {
	inner Batch
	p     *PrefixDB
}

func (pb *prefixBatch) Put(key, value []byte) error {
	return pb.inner.Put(pb.p.prefixed(key), value)
}

func (pb *prefixBatch) Delete(key []byte) error {
	return pb.inner.Delete(pb.p.prefixed(key))
}

func (pb *prefixBatch) Commit() error {
	return pb.inner.Commit()
}

// directBatch buffers writes and applies them one by one.
type directBatch struct {
	db   DB
	puts map[string][]byte
	dels []string
}

func (db *directBatch) Put(key, value []byte) error {
	if db.puts == nil {
		db.puts = make(map[string][]byte)
	}
	db.puts[string(key)] = append([]byte(nil), value...)
	return nil
}

func (db *directBatch) Delete(key []byte) error {
	delete(db.puts, string(key))
	db.dels = append(db.dels, string(key))
	return nil
}

func (db *directBatch) Commit() error {
	for _, k := range db.dels {
		if err := db.db.Delete([]byte(k)); err != nil {
			return err
		}
	}
	for k, v := range db.puts {
		if err := db.db.Put([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}
