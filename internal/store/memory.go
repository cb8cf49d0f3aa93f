package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"go-file-vault/internal/model"
	"go-file-vault/internal/vpath"
)

// MemoryRecordStore is a mutex-guarded in-memory RecordStore. It is the
// default store for tests and embeddable setups that do not need
// durability.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]model.FileRecord
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: map[string]model.FileRecord{}}
}

func (s *MemoryRecordStore) Create(_ context.Context, record model.FileRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = uuid.NewString()
	s.records[record.ID] = record
	return record.ID, nil
}

func (s *MemoryRecordStore) Get(_ context.Context, id string) (model.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return model.FileRecord{}, model.ErrNotFound
	}

	return record, nil
}

func (s *MemoryRecordStore) Update(_ context.Context, id string, patch RecordPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return model.ErrNotFound
	}

	applyPatch(&record, patch)
	s.records[id] = record
	return nil
}

func (s *MemoryRecordStore) QueryByScopeAndPath(_ context.Context, scope string, path string, isDeleted bool) ([]model.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.FileRecord, 0)
	for _, record := range s.records {
		if record.Scope != scope || record.VirtualPath != path || record.IsDeleted != isDeleted {
			continue
		}
		matches = append(matches, record)
	}

	sortByID(matches)
	return matches, nil
}

func (s *MemoryRecordStore) QueryByScopeAndPathPrefix(_ context.Context, scope string, prefix string) ([]model.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.FileRecord, 0)
	for _, record := range s.records {
		if record.Scope != scope || record.IsDeleted {
			continue
		}
		if !vpath.IsDescendantOf(record.VirtualPath, prefix) {
			continue
		}
		matches = append(matches, record)
	}

	sortByID(matches)
	return matches, nil
}

func (s *MemoryRecordStore) BatchUpdate(_ context.Context, items []BatchItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching anything so the batch stays
	// all-or-nothing.
	for _, item := range items {
		if _, exists := s.records[item.ID]; !exists {
			return fmt.Errorf("batch update %q: %w", item.ID, model.ErrNotFound)
		}
	}

	for _, item := range items {
		record := s.records[item.ID]
		applyPatch(&record, item.Patch)
		s.records[item.ID] = record
	}

	return nil
}

// sortByID keeps query results deterministic; callers impose their own
// display ordering.
func sortByID(records []model.FileRecord) {
	sort.Slice(records, func(i int, j int) bool {
		return records[i].ID < records[j].ID
	})
}

// MemoryVersionStore is the in-memory VersionStore counterpart.
type MemoryVersionStore struct {
	mu       sync.RWMutex
	versions map[string]model.Version
}

func NewMemoryVersionStore() *MemoryVersionStore {
	return &MemoryVersionStore{versions: map[string]model.Version{}}
}

func (s *MemoryVersionStore) Create(_ context.Context, version model.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions[version.ID] = version
	return nil
}

func (s *MemoryVersionStore) Get(_ context.Context, id string) (model.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, exists := s.versions[id]
	if !exists {
		return model.Version{}, model.ErrNotFound
	}

	return version, nil
}

func (s *MemoryVersionStore) ListByFile(_ context.Context, fileID string) ([]model.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.Version, 0)
	for _, version := range s.versions {
		if version.OriginalFileID != fileID {
			continue
		}
		matches = append(matches, version)
	}

	sort.SliceStable(matches, func(i int, j int) bool {
		if matches[i].SnapshotAt.Equal(matches[j].SnapshotAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].SnapshotAt.After(matches[j].SnapshotAt)
	})

	return matches, nil
}

func (s *MemoryVersionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.versions[id]; !exists {
		return model.ErrNotFound
	}

	delete(s.versions, id)
	return nil
}

// MemoryAuditStore keeps entries append-ordered; Scan walks backwards so
// retrieval is newest-first.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{entries: make([]model.AuditEntry, 0)}
}

func (s *MemoryAuditStore) Append(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryAuditStore) Scan(_ context.Context, scope string, limit int) ([]model.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.AuditEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(matches) < limit; i-- {
		if s.entries[i].Scope != scope {
			continue
		}
		matches = append(matches, s.entries[i])
	}

	return matches, nil
}
