// Package store is a file-backed entity store: one directory per collection,
// one JSON file per entity. Create is naturally exclusive and delete is
// final, at the cost of no cross-entity atomicity — a multi-entity operation
// that fails partway leaves earlier writes committed. Layered components are
// written defensively for that.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrAlreadyExists reports a duplicate create.
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrNotFound reports an absent entity.
	ErrNotFound = errors.New("entity not found")
	// ErrCorrupt reports stored bytes that cannot be deserialized. An empty
	// file is corrupt, not an empty record.
	ErrCorrupt = errors.New("entity record is corrupt")
)

// Store performs collection-scoped CRUD over an injected filesystem. It
// holds no per-entity locks: concurrent updates to the same id are last
// writer wins.
type Store struct {
	fs      afero.Fs
	baseDir string
}

// New creates a Store rooted at baseDir on the given filesystem.
func New(fs afero.Fs, baseDir string) *Store {
	return &Store{fs: fs, baseDir: baseDir}
}

// EnsureCollections creates the named collection directories if absent.
func (s *Store) EnsureCollections(names ...string) error {
	for _, name := range names {
		if err := s.fs.MkdirAll(filepath.Join(s.baseDir, name), 0o755); err != nil {
			return fmt.Errorf("store: ensure collection %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) path(collection, id string) string {
	return filepath.Join(s.baseDir, collection, id+".json")
}

// Create writes a new entity. It never overwrites: a second create for the
// same (collection, id) fails with ErrAlreadyExists.
func (s *Store) Create(collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: marshal %s/%s: %w", collection, id, err)
	}
	f, err := s.fs.OpenFile(s.path(collection, id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("store: create %s/%s: %w", collection, id, ErrAlreadyExists)
		}
		return fmt.Errorf("store: create %s/%s: %w", collection, id, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("store: write %s/%s: %w", collection, id, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: close %s/%s: %w", collection, id, err)
	}
	return nil
}

// Read loads an entity into record. Absent entities fail with ErrNotFound,
// unreadable ones with ErrCorrupt.
func (s *Store) Read(collection, id string, record any) error {
	data, err := afero.ReadFile(s.fs, s.path(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store: read %s/%s: %w", collection, id, ErrNotFound)
		}
		return fmt.Errorf("store: read %s/%s: %w", collection, id, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("store: read %s/%s: empty file: %w", collection, id, ErrCorrupt)
	}
	if err := json.Unmarshal(data, record); err != nil {
		return fmt.Errorf("store: read %s/%s: %v: %w", collection, id, err, ErrCorrupt)
	}
	return nil
}

// Update replaces the full contents of an existing entity. There are no
// partial or merge semantics; callers read-modify-write whole records.
func (s *Store) Update(collection, id string, record any) error {
	if _, err := s.fs.Stat(s.path(collection, id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store: update %s/%s: %w", collection, id, ErrNotFound)
		}
		return fmt.Errorf("store: update %s/%s: %w", collection, id, err)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: marshal %s/%s: %w", collection, id, err)
	}
	if err := afero.WriteFile(s.fs, s.path(collection, id), data, 0o644); err != nil {
		return fmt.Errorf("store: update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes an entity permanently.
func (s *Store) Delete(collection, id string) error {
	if _, err := s.fs.Stat(s.path(collection, id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store: delete %s/%s: %w", collection, id, ErrNotFound)
		}
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, err)
	}
	if err := s.fs.Remove(s.path(collection, id)); err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// List returns the ids present in a collection. An empty collection yields
// an empty slice, not an error.
func (s *Store) List(collection string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, filepath.Join(s.baseDir, collection))
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", collection, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
