// Package cache maps fingerprints to generated schemas. Stores are
// append-only and content-addressed: an entry is written once per
// fingerprint and never rewritten in place.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZyrusAlvez/Schema-Generator/fingerprint"
	"github.com/ZyrusAlvez/Schema-Generator/schema"
)

var (
	// ErrCorruptEntry is wrapped when a stored entry exists but cannot be
	// read back, or claims another fingerprint.
	ErrCorruptEntry = errors.New("corrupt cache entry")
	// ErrPersistenceFailure is wrapped when an entry could not be written.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrInvalidFingerprint is returned for keys that are not lowercase hex
	// digests.
	ErrInvalidFingerprint = errors.New("invalid fingerprint")
	// ErrEntryExists is returned by Save when the fingerprint is already
	// stored. The stored entry is left untouched.
	ErrEntryExists = errors.New("cache entry already exists")
)

// Entry is one stored schema.
type Entry struct {
	Fingerprint string
	Schema      *schema.Fragment
	// Source names where the entry came from: the document that generated it,
	// or the artifact it was read from.
	Source string
}

// Store persists entries keyed by fingerprint. Load reports a missing entry
// as (Entry{}, false, nil); a present but unreadable one is an error wrapping
// ErrCorruptEntry.
type Store interface {
	Load(ctx context.Context, fp string) (Entry, bool, error)
	Save(ctx context.Context, e Entry) error
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{entries: make(map[string]Entry)} }

func (m *MemoryStore) Load(_ context.Context, fp string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[fp]
	return e, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.Fingerprint]; ok {
		return fmt.Errorf("%w: %s", ErrEntryExists, e.Fingerprint)
	}
	m.entries[e.Fingerprint] = e
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// FileStore keeps one artifact per fingerprint at <dir>/<fingerprint><ext>,
// rendered by its codec.
type FileStore struct {
	dir   string
	codec schema.Codec
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// on first Save.
func NewFileStore(dir string, codec schema.Codec) *FileStore {
	return &FileStore{dir: dir, codec: codec}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the artifact path for fp.
func (s *FileStore) Path(fp string) string {
	return filepath.Join(s.dir, fp+s.codec.Format().ArtifactExt())
}

func (s *FileStore) Load(ctx context.Context, fp string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	if !fingerprint.Valid(fp) {
		return Entry{}, false, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fp)
	}
	path := s.Path(fp)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	got, frag, err := s.codec.Decode(b)
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, path, err)
	}
	if got != fp {
		return Entry{}, false, fmt.Errorf("%w: %s carries fingerprint %q", ErrCorruptEntry, path, got)
	}
	return Entry{Fingerprint: fp, Schema: frag, Source: path}, true, nil
}

// Save writes the artifact atomically: readers never observe a partially
// written file. The artifact is committed with a hard link, so an existing
// file is never replaced; Save then returns ErrEntryExists.
func (s *FileStore) Save(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !fingerprint.Valid(e.Fingerprint) {
		return fmt.Errorf("%w: %q", ErrInvalidFingerprint, e.Fingerprint)
	}
	b, err := s.codec.Encode(e.Fingerprint, e.Schema)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	final := s.Path(e.Fingerprint)
	tmp, f, err := createTempFile(s.dir, filepath.Base(final))
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	err = os.Link(tmp, final)
	_ = os.Remove(tmp)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrEntryExists, final)
	}
	return err
}

func createTempFile(dir, base string) (string, *os.File, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+base+"-")
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}
