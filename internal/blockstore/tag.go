package blockstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// ErrNoSuchTag is returned when reading a tag that was never written.
var ErrNoSuchTag = errors.New("no such tag")

func (s *Store) tagPath(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid tag name %q", name)
	}
	return filepath.Join(s.root, tagDir, filepath.FromSlash(name)), nil
}

// WriteTag points name at hash. The tag file is replaced atomically.
func (s *Store) WriteTag(name string, hash types.Hash) error {
	path, err := s.tagPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create tag dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tag-*")
	if err != nil {
		return fmt.Errorf("write tag %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(hash.String() + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write tag %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync tag %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write tag %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install tag %s: %w", name, err)
	}
	return nil
}

// ReadTag returns the hash name points at.
func (s *Store) ReadTag(name string) (types.Hash, error) {
	path, err := s.tagPath(name)
	if err != nil {
		return types.Hash{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Hash{}, fmt.Errorf("%w: %s", ErrNoSuchTag, name)
		}
		return types.Hash{}, fmt.Errorf("read tag %s: %w", name, err)
	}
	hash, err := types.HexToHash(strings.TrimSpace(string(raw)))
	if err != nil {
		return types.Hash{}, fmt.Errorf("tag %s: %w", name, err)
	}
	return hash, nil
}

// RemoveTag deletes a tag. Removing a missing tag fails with ErrNoSuchTag.
func (s *Store) RemoveTag(name string) error {
	path, err := s.tagPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoSuchTag, name)
		}
		return fmt.Errorf("remove tag %s: %w", name, err)
	}
	return nil
}

// ListTags returns the tag names under prefix (for example "remote/"),
// sorted, with the prefix removed.
func (s *Store) ListTags(prefix string) ([]string, error) {
	dir := filepath.Join(s.root, tagDir)
	if p := strings.Trim(prefix, "/"); p != "" {
		d, err := s.tagPath(p)
		if err != nil {
			return nil, err
		}
		dir = d
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
