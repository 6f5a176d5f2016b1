// Package blob stores binary attachment resources and hands out their
// public URLs.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store saves attachment blobs and returns the URL they are served under.
// Remove discards a stored blob again, for callers whose enclosing write
// did not go through.
type Store interface {
	Save(data []byte, fileName string) (string, error)
	Remove(fileName string) error
}

// FSStore writes blobs to a directory on the local filesystem.
type FSStore struct {
	dir     string
	baseURL string
}

// NewFSStore creates a filesystem blob store rooted at dir. Saved blobs are
// addressed as baseURL + "/" + fileName.
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the directory blobs are written to.
func (s *FSStore) Dir() string {
	return s.dir
}

// Save writes the blob and returns its public URL.
func (s *FSStore) Save(data []byte, fileName string) (string, error) {
	path := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/" + fileName, nil
}

// Remove deletes a stored blob by file name.
func (s *FSStore) Remove(fileName string) error {
	if err := os.Remove(filepath.Join(s.dir, fileName)); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

var _ Store = (*FSStore)(nil)
