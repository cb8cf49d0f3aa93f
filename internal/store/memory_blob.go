package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"go-file-vault/internal/model"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

// MemoryBlobStore keeps blobs in a lock-free concurrent map. Keys are
// opaque and never shared between writers, so per-key operations need no
// cross-key coordination.
type MemoryBlobStore struct {
	blobs *xsync.Map[string, memoryBlob]
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: xsync.NewMap[string, memoryBlob]()}
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs.Store(key, memoryBlob{data: copied, contentType: contentType})
	return nil
}

func (s *MemoryBlobStore) Copy(_ context.Context, sourceKey string) (string, error) {
	blob, exists := s.blobs.Load(sourceKey)
	if !exists {
		return "", model.ErrBlobNotFound
	}

	copied := make([]byte, len(blob.data))
	copy(copied, blob.data)

	key := uuid.NewString()
	s.blobs.Store(key, memoryBlob{data: copied, contentType: blob.contentType})
	return key, nil
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	blob, exists := s.blobs.Load(key)
	if !exists {
		return nil, model.ErrBlobNotFound
	}

	copied := make([]byte, len(blob.data))
	copy(copied, blob.data)
	return copied, nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.blobs.Delete(key)
	return nil
}

// Len reports the number of stored blobs; tests use it to verify blob
// lifecycle accounting.
func (s *MemoryBlobStore) Len() int {
	return s.blobs.Size()
}
