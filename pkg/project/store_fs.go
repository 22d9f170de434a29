package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/snappy"
)

const (
	dirPermissions  = 0755
	filePermissions = 0644

	plainExt      = ".patchbay.json"
	compressedExt = ".patchbay.snappy"
)

// snappyMagic prefixes compressed documents so Load can tell the two
// formats apart without relying on the extension.
var snappyMagic = []byte("PBSN")

// Store persists project documents. Both backends implement it.
type Store interface {
	Save(ctx context.Context, doc *Document) error
	Load(ctx context.Context, name string) (*Document, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// FSStore keeps one file per project under a data directory, optionally
// snappy-compressed.
type FSStore struct {
	dataDir  string
	compress bool
}

// NewFSStore creates a filesystem-backed project store.
func NewFSStore(dataDir string, compress bool) (*FSStore, error) {
	if err := os.MkdirAll(dataDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FSStore{dataDir: dataDir, compress: compress}, nil
}

// Save writes the document, replacing any previous save of the same
// name. The write goes through a temp file and rename so a crash never
// leaves a truncated project behind.
func (s *FSStore) Save(_ context.Context, doc *Document) error {
	if err := doc.Check(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	path := s.path(doc.Name, s.compress)
	if s.compress {
		data = append(append([]byte{}, snappyMagic...), snappy.Encode(nil, data)...)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace project: %w", err)
	}

	// Drop a stale save in the other format, so List stays unambiguous.
	os.Remove(s.path(doc.Name, !s.compress))
	return nil
}

// Load reads, decompresses if needed, migrates, and checks a document.
func (s *FSStore) Load(_ context.Context, name string) (*Document, error) {
	data, err := os.ReadFile(s.path(name, s.compress))
	if os.IsNotExist(err) {
		// Fall back to the other format.
		data, err = os.ReadFile(s.path(name, !s.compress))
	}
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	if len(data) >= len(snappyMagic) && string(data[:len(snappyMagic)]) == string(snappyMagic) {
		data, err = snappy.Decode(nil, data[len(snappyMagic):])
		if err != nil {
			return nil, fmt.Errorf("decompress project: %w", err)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	doc.migrate()
	if err := doc.Check(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the names of all saved projects, sorted.
func (s *FSStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, plainExt):
			names = append(names, strings.TrimSuffix(name, plainExt))
		case strings.HasSuffix(name, compressedExt):
			names = append(names, strings.TrimSuffix(name, compressedExt))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a saved project in either format.
func (s *FSStore) Delete(_ context.Context, name string) error {
	errPlain := os.Remove(s.path(name, false))
	errComp := os.Remove(s.path(name, true))
	if os.IsNotExist(errPlain) && os.IsNotExist(errComp) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close is a no-op for the filesystem backend.
func (s *FSStore) Close() error { return nil }

// path maps a project name to its file, stripping separators so names
// cannot escape the data dir.
func (s *FSStore) path(name string, compressed bool) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	ext := plainExt
	if compressed {
		ext = compressedExt
	}
	return filepath.Join(s.dataDir, safe+ext)
}
