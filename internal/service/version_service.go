package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"go-file-vault/internal/event"
	"go-file-vault/internal/model"
	"go-file-vault/internal/store"
	"go-file-vault/pkg/fserr"
)

// Versions manages immutable content snapshots. Every snapshot owns a
// private blob copy, so deleting the original file or its versions never
// invalidates another version's content.
type Versions struct {
	versions store.VersionStore
	records  store.RecordStore
	blobs    store.BlobStore
	audit    *Audit
	bus      event.Bus
}

func NewVersions(versions store.VersionStore, records store.RecordStore, blobs store.BlobStore, audit *Audit, bus event.Bus) *Versions {
	return &Versions{
		versions: versions,
		records:  records,
		blobs:    blobs,
		audit:    audit,
		bus:      bus,
	}
}

// Snapshot captures the record's current content as a new version. Records
// without a blob (folders, files already stripped of content) produce no
// version and no error; the bool reports whether a snapshot was taken.
// suppressAudit skips the create_version log line when the snapshot is an
// inner step of a larger operation.
func (s *Versions) Snapshot(ctx context.Context, record model.FileRecord, actor model.Actor, suppressAudit bool) (model.Version, bool, error) {
	if record.BlobKey == "" {
		return model.Version{}, false, nil
	}

	copyKey, err := s.blobs.Copy(ctx, record.BlobKey)
	if err != nil {
		// The key can dangle: a soft-delete releases the live blob but keeps
		// the key on the record. A dangling key holds no content to snapshot.
		if errors.Is(err, model.ErrBlobNotFound) {
			return model.Version{}, false, nil
		}
		return model.Version{}, false, fserr.From(fserr.CodeStoreUnavailable, "could not copy content for snapshot", record.ID, err)
	}

	version := model.Version{
		ID:             uuid.NewString(),
		OriginalFileID: record.ID,
		OriginalName:   record.Name,
		BlobKey:        copyKey,
		SizeBytes:      record.SizeBytes,
		ContentType:    record.ContentType,
		SnapshotAt:     time.Now().UTC(),
		CreatedBy:      actor,
	}

	if err := s.versions.Create(ctx, version); err != nil {
		// The copied blob is orphaned on failure; reclaim it.
		_ = s.blobs.Delete(ctx, copyKey)
		return model.Version{}, false, fserr.From(fserr.CodeStoreUnavailable, "could not persist snapshot", record.ID, err)
	}

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionCreateVersion,
		FileID:   record.ID,
		FileName: record.Name,
		Scope:    record.Scope,
		Path:     record.VirtualPath,
		Actor:    actor,
		Metadata: map[string]string{model.MetaVersionID: version.ID},
	}, suppressAudit)

	publish(s.bus, event.TypeVersionCreated, version, actor)

	return version, true, nil
}

// List returns the file's versions newest-first.
func (s *Versions) List(ctx context.Context, fileID string) ([]model.Version, error) {
	versions, err := s.versions.ListByFile(ctx, fileID)
	if err != nil {
		return nil, fserr.From(fserr.CodeStoreUnavailable, "could not list versions", fileID, err)
	}

	return versions, nil
}

// Restore overwrites the live file's content fields with the version's. The
// current content is snapshotted first so the restore itself is undoable
// through the version list. The version row survives; restoring is a copy,
// not a move.
func (s *Versions) Restore(ctx context.Context, fileID string, versionID string, actor model.Actor) (model.FileRecord, error) {
	record, err := s.records.Get(ctx, fileID)
	if err != nil {
		return model.FileRecord{}, wrapRecordErr(err, fileID)
	}
	if record.IsDeleted {
		return model.FileRecord{}, fserr.From(fserr.CodeNotFound, "file is deleted", fileID, model.ErrNotFound)
	}

	version, err := s.versions.Get(ctx, versionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.FileRecord{}, fserr.From(fserr.CodeNotFound, "version not found", versionID, err)
		}
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not load version", versionID, err)
	}
	if version.OriginalFileID != fileID {
		return model.FileRecord{}, fserr.From(fserr.CodeInvalidOperation, "version belongs to a different file", versionID, model.ErrInvalidOperation)
	}

	if _, _, err := s.Snapshot(ctx, record, actor, true); err != nil {
		return model.FileRecord{}, err
	}

	now := time.Now().UTC()
	patch := store.RecordPatch{
		BlobKey:     &version.BlobKey,
		SizeBytes:   &version.SizeBytes,
		ContentType: &version.ContentType,
		UpdatedAt:   &now,
	}
	if err := s.records.Update(ctx, fileID, patch); err != nil {
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not apply restored content", fileID, err)
	}

	record.BlobKey = version.BlobKey
	record.SizeBytes = version.SizeBytes
	record.ContentType = version.ContentType
	record.UpdatedAt = now

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionRestoreVersion,
		FileID:   record.ID,
		FileName: record.Name,
		Scope:    record.Scope,
		Path:     record.VirtualPath,
		Actor:    actor,
		Metadata: map[string]string{model.MetaVersionID: version.ID},
	}, false)

	publish(s.bus, event.TypeVersionRestored, record, actor)

	return record, nil
}

// Delete removes a version and its blob permanently. There is no
// soft-delete for versions.
func (s *Versions) Delete(ctx context.Context, versionID string, actor model.Actor) error {
	version, err := s.versions.Get(ctx, versionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fserr.From(fserr.CodeNotFound, "version not found", versionID, err)
		}
		return fserr.From(fserr.CodeStoreUnavailable, "could not load version", versionID, err)
	}

	if version.BlobKey != "" {
		if err := s.blobs.Delete(ctx, version.BlobKey); err != nil {
			return fserr.From(fserr.CodeStoreUnavailable, "could not delete version content", versionID, err)
		}
	}

	if err := s.versions.Delete(ctx, versionID); err != nil {
		return fserr.From(fserr.CodeStoreUnavailable, "could not delete version", versionID, err)
	}

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionDeleteVersion,
		FileID:   version.OriginalFileID,
		FileName: version.OriginalName,
		Actor:    actor,
		Metadata: map[string]string{model.MetaVersionID: version.ID},
	}, false)

	publish(s.bus, event.TypeVersionDeleted, version, actor)

	return nil
}
