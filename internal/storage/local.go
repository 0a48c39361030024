package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps photo bytes on the local filesystem under a single
// directory. Keys are flattened so a crafted key cannot escape the root.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Backend() string { return BackendLocal }

func (s *LocalStore) path(key string) string {
	safe := strings.ReplaceAll(filepath.Clean(key), "..", "")
	return filepath.Join(s.dir, filepath.Base(safe))
}

func (s *LocalStore) Put(ctx context.Context, key, mimeType string, data []byte) (*StoredFile, error) {
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", key, err)
	}

	recordStored(BackendLocal)

	return &StoredFile{Key: key, Mime: mimeType, Size: int64(len(data))}, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file %s: %w", key, err)
	}

	return f, mime.TypeByExtension(filepath.Ext(key)), nil
}

func (s *LocalStore) URL(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}
