package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore is the profile-photo storage boundary: put bytes under a key and
// get back a servable URL, or delete them again.
type BlobStore interface {
	Put(key string, data []byte) (string, error)
	Delete(key string) error
}

// DiskBlobStore keeps blobs on the local filesystem under a single directory
// served as static files.
type DiskBlobStore struct {
	dir     string
	baseURL string
}

func NewDiskBlobStore(dir, baseURL string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskBlobStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *DiskBlobStore) Put(key string, data []byte) (string, error) {
	key = sanitizeKey(key)
	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return s.baseURL + "/uploads/" + key, nil
}

func (s *DiskBlobStore) Delete(key string) error {
	key = sanitizeKey(key)
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// sanitizeKey strips path separators so a key can never escape the dir.
func sanitizeKey(key string) string {
	return filepath.Base(strings.ReplaceAll(key, "\\", "/"))
}
