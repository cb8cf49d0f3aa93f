// Package store defines the persistence interfaces the vault core is
// written against, together with in-memory implementations. The document
// store behind RecordStore is flat: records are independently addressable
// and hierarchy exists only as virtual-path strings on each record.
package store

import (
	"context"
	"time"

	"go-file-vault/internal/model"
)

// RecordPatch is a partial update for a file record. Nil fields are left
// untouched. ClearDeletion resets the deletion provenance alongside an
// IsDeleted=false flip.
type RecordPatch struct {
	Name          *string
	VirtualPath   *string
	BlobKey       *string
	SizeBytes     *int64
	ContentType   *string
	IsDeleted     *bool
	DeletedBy     *model.Actor
	DeletedAt     *time.Time
	ClearDeletion bool
	UpdatedAt     *time.Time
}

type BatchItem struct {
	ID    string
	Patch RecordPatch
}

// RecordStore is the flat document store holding file records. BatchUpdate
// is atomic as a unit: either every patch applies or none do. That batch is
// the only multi-record atomicity the store offers.
type RecordStore interface {
	// Create assigns and returns a fresh id.
	Create(ctx context.Context, record model.FileRecord) (string, error)
	// Get returns model.ErrNotFound for unknown ids. Soft-deleted records
	// are still returned; visibility filtering is the caller's concern.
	Get(ctx context.Context, id string) (model.FileRecord, error)
	Update(ctx context.Context, id string, patch RecordPatch) error
	// QueryByScopeAndPath returns records whose virtual path equals path,
	// filtered by the deletion flag.
	QueryByScopeAndPath(ctx context.Context, scope string, path string, isDeleted bool) ([]model.FileRecord, error)
	// QueryByScopeAndPathPrefix returns active records whose virtual path
	// equals prefix or sits anywhere below it.
	QueryByScopeAndPathPrefix(ctx context.Context, scope string, prefix string) ([]model.FileRecord, error)
	BatchUpdate(ctx context.Context, items []BatchItem) error
}

// BlobStore holds binary content by opaque key. Every write allocates a
// fresh key, so blobs are never shared or mutated in place. Delete is
// idempotent: removing an absent key is not an error.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Copy duplicates an existing blob under a newly allocated key.
	Copy(ctx context.Context, sourceKey string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// VersionStore persists content snapshots.
type VersionStore interface {
	Create(ctx context.Context, version model.Version) error
	Get(ctx context.Context, id string) (model.Version, error)
	// ListByFile returns versions newest-first by snapshot time.
	ListByFile(ctx context.Context, fileID string) ([]model.Version, error)
	Delete(ctx context.Context, id string) error
}

// AuditStore persists audit entries. Scan is the baseline retrieval path:
// newest-first, scoped, bounded by limit, no further filtering.
type AuditStore interface {
	Append(ctx context.Context, entry model.AuditEntry) error
	Scan(ctx context.Context, scope string, limit int) ([]model.AuditEntry, error)
}

// AuditAggregator is an optional server-side optimization for audit
// queries. The audit service must keep working through AuditStore.Scan when
// no aggregator is configured or the aggregator fails.
type AuditAggregator interface {
	Query(ctx context.Context, scope string, folder string, limit int) ([]model.AuditEntry, error)
}

func applyPatch(record *model.FileRecord, patch RecordPatch) {
	if patch.Name != nil {
		record.Name = *patch.Name
	}
	if patch.VirtualPath != nil {
		record.VirtualPath = *patch.VirtualPath
	}
	if patch.BlobKey != nil {
		record.BlobKey = *patch.BlobKey
	}
	if patch.SizeBytes != nil {
		record.SizeBytes = *patch.SizeBytes
	}
	if patch.ContentType != nil {
		record.ContentType = *patch.ContentType
	}
	if patch.IsDeleted != nil {
		record.IsDeleted = *patch.IsDeleted
	}
	if patch.DeletedBy != nil {
		record.DeletedBy = *patch.DeletedBy
	}
	if patch.DeletedAt != nil {
		record.DeletedAt = patch.DeletedAt
	}
	if patch.ClearDeletion {
		record.DeletedBy = model.Actor{}
		record.DeletedAt = nil
	}
	if patch.UpdatedAt != nil {
		record.UpdatedAt = *patch.UpdatedAt
	}
}
