package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"go-file-vault/internal/model"
)

// DiskBlobStore stores each blob as a single file under root, named by its
// opaque key. Content types live on the owning record/version, not here.
type DiskBlobStore struct {
	root string
}

func NewDiskBlobStore(root string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("prepare blob directory: %w", err)
	}

	return &DiskBlobStore{root: root}, nil
}

func (s *DiskBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write blob %q: %w", key, err)
	}

	return nil
}

func (s *DiskBlobStore) Copy(_ context.Context, sourceKey string) (string, error) {
	sourcePath, err := s.resolve(sourceKey)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", model.ErrBlobNotFound
		}
		return "", fmt.Errorf("read blob %q: %w", sourceKey, err)
	}

	key := uuid.NewString()
	targetPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(targetPath, data, 0o644); err != nil {
		return "", fmt.Errorf("copy blob %q: %w", sourceKey, err)
	}

	return key, nil
}

func (s *DiskBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrBlobNotFound
		}
		return nil, fmt.Errorf("read blob %q: %w", key, err)
	}

	return data, nil
}

func (s *DiskBlobStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}

	return nil
}

// resolve rejects keys that would escape the blob root. Keys are uuids in
// practice, but the store does not trust its callers with path traversal.
func (s *DiskBlobStore) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: invalid blob key %q", model.ErrInvalidInput, key)
	}

	return filepath.Join(s.root, key), nil
}
