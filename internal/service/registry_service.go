package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-file-vault/internal/event"
	"go-file-vault/internal/model"
	"go-file-vault/internal/store"
	"go-file-vault/internal/util"
	"go-file-vault/internal/vpath"
	"go-file-vault/pkg/fserr"
)

// Registry is the file registry: it owns record lifecycle (create, rename,
// move, soft-delete, restore) and keeps the virtual-path invariants intact.
// Folders and files live in the same flat record store; a folder operation
// that touches descendants rewrites their paths through one atomic batch
// before updating the folder's own record.
type Registry struct {
	records  store.RecordStore
	blobs    store.BlobStore
	versions *Versions
	audit    *Audit
	bus      event.Bus
}

func NewRegistry(records store.RecordStore, blobs store.BlobStore, versions *Versions, audit *Audit, bus event.Bus) *Registry {
	return &Registry{
		records:  records,
		blobs:    blobs,
		versions: versions,
		audit:    audit,
		bus:      bus,
	}
}

// Get returns a record regardless of deletion state.
func (s *Registry) Get(ctx context.Context, id string) (model.FileRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return model.FileRecord{}, wrapRecordErr(err, id)
	}

	return record, nil
}

// List returns the active entries directly under a folder path, folders
// before files, each group ordered by case-insensitive name.
func (s *Registry) List(ctx context.Context, scope string, path string) ([]model.FileRecord, error) {
	records, err := s.records.QueryByScopeAndPath(ctx, scope, vpath.Normalize(path), false)
	if err != nil {
		return nil, fserr.From(fserr.CodeStoreUnavailable, "could not list folder", path, err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Kind != records[j].Kind {
			return records[i].Kind == model.KindFolder
		}

		return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
	})

	return records, nil
}

// CreateFile stores content and registers the file under path. The blob is
// written before the record so a record never points at missing content;
// if the record insert fails the blob is reclaimed.
func (s *Registry) CreateFile(ctx context.Context, scope string, path string, name string, data []byte, contentType string, actor model.Actor) (model.FileRecord, error) {
	name, err := util.SanitizeName(name)
	if err != nil {
		return model.FileRecord{}, err
	}
	if contentType == "" {
		contentType = util.DetectContentType(data)
	}
	path = vpath.Normalize(path)

	if err := s.ensureNameFree(ctx, scope, path, name); err != nil {
		return model.FileRecord{}, err
	}

	blobKey := uuid.NewString()
	if err := s.blobs.Put(ctx, blobKey, data, contentType); err != nil {
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not store content", name, err)
	}

	now := time.Now().UTC()
	record := model.FileRecord{
		Name:        name,
		Kind:        model.KindFile,
		VirtualPath: path,
		Scope:       scope,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
		BlobKey:     blobKey,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.records.Create(ctx, record)
	if err != nil {
		_ = s.blobs.Delete(ctx, blobKey)
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not register file", name, err)
	}
	record.ID = id

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionUpload,
		FileID:   record.ID,
		FileName: record.Name,
		Scope:    scope,
		Path:     path,
		Actor:    actor,
	}, false)

	publish(s.bus, event.TypeFileCreated, record, actor)

	return record, nil
}

// CreateFolder registers a folder record. Folders carry no content.
func (s *Registry) CreateFolder(ctx context.Context, scope string, path string, name string, actor model.Actor) (model.FileRecord, error) {
	name, err := util.SanitizeName(name)
	if err != nil {
		return model.FileRecord{}, err
	}
	path = vpath.Normalize(path)

	if err := s.ensureNameFree(ctx, scope, path, name); err != nil {
		return model.FileRecord{}, err
	}

	now := time.Now().UTC()
	record := model.FileRecord{
		Name:        name,
		Kind:        model.KindFolder,
		VirtualPath: path,
		Scope:       scope,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.records.Create(ctx, record)
	if err != nil {
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not create folder", name, err)
	}
	record.ID = id

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionCreateFolder,
		FileID:   record.ID,
		FileName: record.Name,
		Scope:    scope,
		Path:     path,
		Actor:    actor,
	}, false)

	publish(s.bus, event.TypeFolderCreated, record, actor)

	return record, nil
}

// Content returns a file's stored bytes.
func (s *Registry) Content(ctx context.Context, id string) ([]byte, model.FileRecord, error) {
	record, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, model.FileRecord{}, err
	}
	if record.Kind != model.KindFile || record.BlobKey == "" {
		return nil, model.FileRecord{}, fserr.From(fserr.CodeInvalidOperation, "entry has no content", id, model.ErrInvalidOperation)
	}

	data, err := s.blobs.Get(ctx, record.BlobKey)
	if err != nil {
		return nil, model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not read content", id, err)
	}

	return data, record, nil
}

// Replace snapshots the file's current content and then stores new bytes
// under a fresh blob key.
func (s *Registry) Replace(ctx context.Context, id string, data []byte, contentType string, actor model.Actor) (model.FileRecord, error) {
	record, err := s.loadActive(ctx, id)
	if err != nil {
		return model.FileRecord{}, err
	}
	if record.Kind != model.KindFile {
		return model.FileRecord{}, fserr.From(fserr.CodeInvalidOperation, "folders have no content", id, model.ErrInvalidOperation)
	}
	if contentType == "" {
		contentType = util.DetectContentType(data)
	}

	if _, _, err := s.versions.Snapshot(ctx, record, actor, false); err != nil {
		return model.FileRecord{}, err
	}

	blobKey := uuid.NewString()
	if err := s.blobs.Put(ctx, blobKey, data, contentType); err != nil {
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not store content", id, err)
	}

	oldBlobKey := record.BlobKey
	now := time.Now().UTC()
	size := int64(len(data))
	patch := store.RecordPatch{
		BlobKey:     &blobKey,
		SizeBytes:   &size,
		ContentType: &contentType,
		UpdatedAt:   &now,
	}
	if err := s.records.Update(ctx, id, patch); err != nil {
		_ = s.blobs.Delete(ctx, blobKey)
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not update record", id, err)
	}

	if oldBlobKey != "" {
		_ = s.blobs.Delete(ctx, oldBlobKey)
	}

	record.BlobKey = blobKey
	record.SizeBytes = size
	record.ContentType = contentType
	record.UpdatedAt = now

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionUpload,
		FileID:   record.ID,
		FileName: record.Name,
		Scope:    record.Scope,
		Path:     record.VirtualPath,
		Actor:    actor,
	}, false)

	publish(s.bus, event.TypeFileCreated, record, actor)

	return record, nil
}

// Rename changes an entry's name. Renaming a folder rewrites every active
// descendant's virtual path in one atomic batch before the folder's own
// record is updated; if that second write fails the subtree is already
// renamed and the error reports a partial application.
func (s *Registry) Rename(ctx context.Context, id string, newName string, actor model.Actor) (model.FileRecord, error) {
	newName, err := util.SanitizeName(newName)
	if err != nil {
		return model.FileRecord{}, err
	}

	record, err := s.loadActive(ctx, id)
	if err != nil {
		return model.FileRecord{}, err
	}
	if record.Name == newName {
		return record, nil
	}

	if err := s.ensureNameFree(ctx, record.Scope, record.VirtualPath, newName); err != nil {
		return model.FileRecord{}, err
	}

	if record.Kind == model.KindFolder {
		oldFull := vpath.Join(record.VirtualPath, record.Name)
		newFull := vpath.Join(record.VirtualPath, newName)
		if err := s.rewriteSubtree(ctx, record.Scope, oldFull, newFull); err != nil {
			return model.FileRecord{}, err
		}
	}

	now := time.Now().UTC()
	patch := store.RecordPatch{Name: &newName, UpdatedAt: &now}
	if err := s.records.Update(ctx, id, patch); err != nil {
		if record.Kind == model.KindFolder {
			return model.FileRecord{}, fserr.From(fserr.CodePartialFailure,
				"descendants renamed but folder record update failed", id, model.ErrPartialFailure)
		}
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not rename entry", id, err)
	}

	oldName := record.Name
	record.Name = newName
	record.UpdatedAt = now

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionRename,
		FileID:   record.ID,
		FileName: record.Name,
		Scope:    record.Scope,
		Path:     record.VirtualPath,
		Actor:    actor,
		Metadata: map[string]string{
			model.MetaOldName: oldName,
			model.MetaNewName: newName,
		},
	}, false)

	publish(s.bus, event.TypeFileRenamed, record, actor)

	return record, nil
}

// Move relocates an entry under targetPath. Moving a folder into itself or
// any of its descendants is rejected. As with Rename, a folder move
// rewrites the subtree first and updates the folder record second.
func (s *Registry) Move(ctx context.Context, id string, targetPath string, actor model.Actor) (model.FileRecord, error) {
	record, err := s.loadActive(ctx, id)
	if err != nil {
		return model.FileRecord{}, err
	}

	targetPath = vpath.Normalize(targetPath)
	if record.VirtualPath == targetPath {
		return record, nil
	}

	oldFull := vpath.Join(record.VirtualPath, record.Name)
	if record.Kind == model.KindFolder && vpath.IsDescendantOf(targetPath, oldFull) {
		return model.FileRecord{}, fserr.From(fserr.CodeInvalidOperation,
			"cannot move a folder into itself", id, model.ErrInvalidOperation)
	}

	if err := s.ensureNameFree(ctx, record.Scope, targetPath, record.Name); err != nil {
		return model.FileRecord{}, err
	}

	if record.Kind == model.KindFolder {
		newFull := vpath.Join(targetPath, record.Name)
		if err := s.rewriteSubtree(ctx, record.Scope, oldFull, newFull); err != nil {
			return model.FileRecord{}, err
		}
	}

	now := time.Now().UTC()
	patch := store.RecordPatch{VirtualPath: &targetPath, UpdatedAt: &now}
	if err := s.records.Update(ctx, id, patch); err != nil {
		if record.Kind == model.KindFolder {
			return model.FileRecord{}, fserr.From(fserr.CodePartialFailure,
				"descendants moved but folder record update failed", id, model.ErrPartialFailure)
		}
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not move entry", id, err)
	}

	sourcePath := record.VirtualPath
	record.VirtualPath = targetPath
	record.UpdatedAt = now

	// Path carries the location the entry had when the action happened.
	s.audit.Append(ctx, model.AuditEntry{
		Action:     model.ActionMove,
		FileID:     record.ID,
		FileName:   record.Name,
		Scope:      record.Scope,
		Path:       sourcePath,
		SourcePath: sourcePath,
		TargetPath: targetPath,
		Actor:      actor,
	}, false)

	publish(s.bus, event.TypeFileMoved, record, actor)

	return record, nil
}

// SoftDelete marks an entry deleted, snapshotting file content first so the
// deletion can be reviewed and the content recovered through versions. The
// live blob is released; the version's copy survives. Deleting a folder
// walks its active subtree: every descendant file is snapshotted and
// stripped, then the whole subtree plus the folder is flagged deleted in
// one atomic batch.
func (s *Registry) SoftDelete(ctx context.Context, id string, actor model.Actor) error {
	record, err := s.loadActive(ctx, id)
	if err != nil {
		return err
	}

	if record.Kind == model.KindFile {
		return s.deleteFile(ctx, record, actor, false)
	}

	return s.deleteFolder(ctx, record, actor)
}

func (s *Registry) deleteFile(ctx context.Context, record model.FileRecord, actor model.Actor, parentDeletion bool) error {
	if _, _, err := s.versions.Snapshot(ctx, record, actor, true); err != nil {
		return err
	}

	if record.BlobKey != "" {
		if err := s.blobs.Delete(ctx, record.BlobKey); err != nil {
			return fserr.From(fserr.CodeStoreUnavailable, "could not release content", record.ID, err)
		}
	}

	if err := s.records.Update(ctx, record.ID, deletionPatch(actor)); err != nil {
		// Content is already gone; only the version snapshot still holds it.
		return fserr.From(fserr.CodePartialFailure,
			"content released but record not flagged deleted", record.ID, model.ErrPartialFailure)
	}

	metadata := map[string]string{}
	if parentDeletion {
		metadata[model.MetaParentDeletion] = "true"
	}

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionDeleteFile,
		FileID:   record.ID,
		FileName: record.Name,
		Scope:    record.Scope,
		Path:     record.VirtualPath,
		Actor:    actor,
		Metadata: metadata,
	}, false)

	publish(s.bus, event.TypeFileDeleted, record, actor)

	return nil
}

func (s *Registry) deleteFolder(ctx context.Context, folder model.FileRecord, actor model.Actor) error {
	fullPath := vpath.Join(folder.VirtualPath, folder.Name)
	descendants, err := s.records.QueryByScopeAndPathPrefix(ctx, folder.Scope, fullPath)
	if err != nil {
		return fserr.From(fserr.CodeStoreUnavailable, "could not enumerate folder contents", folder.ID, err)
	}

	// Snapshot and strip descendant files before any record is flagged, so
	// a failure here leaves the tree fully intact.
	destructive := false
	for _, descendant := range descendants {
		if descendant.Kind != model.KindFile || descendant.BlobKey == "" {
			continue
		}
		if _, _, err := s.versions.Snapshot(ctx, descendant, actor, true); err != nil {
			if destructive {
				return fserr.From(fserr.CodePartialFailure,
					"folder delete stopped partway through releasing content", folder.ID, model.ErrPartialFailure)
			}
			return err
		}
		if err := s.blobs.Delete(ctx, descendant.BlobKey); err != nil {
			return fserr.From(fserr.CodePartialFailure,
				"folder delete stopped partway through releasing content", folder.ID, model.ErrPartialFailure)
		}
		destructive = true
	}

	patch := deletionPatch(actor)
	items := make([]store.BatchItem, 0, len(descendants)+1)
	for _, descendant := range descendants {
		items = append(items, store.BatchItem{ID: descendant.ID, Patch: patch})
	}
	items = append(items, store.BatchItem{ID: folder.ID, Patch: patch})

	if err := s.records.BatchUpdate(ctx, items); err != nil {
		if destructive {
			return fserr.From(fserr.CodePartialFailure,
				"descendant content released but records not flagged deleted", folder.ID, model.ErrPartialFailure)
		}
		return fserr.From(fserr.CodeStoreUnavailable, "could not flag folder deleted", folder.ID, err)
	}

	for _, descendant := range descendants {
		action := model.ActionDeleteFile
		if descendant.Kind == model.KindFolder {
			action = model.ActionDeleteFolder
		}
		s.audit.Append(ctx, model.AuditEntry{
			Action:   action,
			FileID:   descendant.ID,
			FileName: descendant.Name,
			Scope:    descendant.Scope,
			Path:     descendant.VirtualPath,
			Actor:    actor,
			Metadata: map[string]string{model.MetaParentDeletion: "true"},
		}, false)
	}

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionDeleteFolder,
		FileID:   folder.ID,
		FileName: folder.Name,
		Scope:    folder.Scope,
		Path:     folder.VirtualPath,
		Actor:    actor,
	}, false)

	publish(s.bus, event.TypeFileDeleted, folder, actor)

	return nil
}

// Restore flips a soft-deleted record back to active. Content is not
// restored here: a restored file keeps whatever BlobKey it was flagged
// with, and content recovery goes through the version list.
func (s *Registry) Restore(ctx context.Context, id string, actor model.Actor) (model.FileRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return model.FileRecord{}, wrapRecordErr(err, id)
	}
	if !record.IsDeleted {
		return model.FileRecord{}, fserr.From(fserr.CodeStale, "entry is not deleted", id, model.ErrStale)
	}

	active := false
	now := time.Now().UTC()
	patch := store.RecordPatch{IsDeleted: &active, ClearDeletion: true, UpdatedAt: &now}
	if err := s.records.Update(ctx, id, patch); err != nil {
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not restore entry", id, err)
	}

	record.IsDeleted = false
	record.DeletedBy = model.Actor{}
	record.DeletedAt = nil
	record.UpdatedAt = now

	publish(s.bus, event.TypeFileRestored, record, actor)

	return record, nil
}

// rewriteSubtree moves every active record under oldFull to the
// corresponding path under newFull in one atomic batch.
func (s *Registry) rewriteSubtree(ctx context.Context, scope string, oldFull string, newFull string) error {
	descendants, err := s.records.QueryByScopeAndPathPrefix(ctx, scope, oldFull)
	if err != nil {
		return fserr.From(fserr.CodeStoreUnavailable, "could not enumerate folder contents", oldFull, err)
	}
	if len(descendants) == 0 {
		return nil
	}

	now := time.Now().UTC()
	items := make([]store.BatchItem, 0, len(descendants))
	for _, descendant := range descendants {
		rewritten := vpath.ReplacePrefix(descendant.VirtualPath, oldFull, newFull)
		items = append(items, store.BatchItem{
			ID:    descendant.ID,
			Patch: store.RecordPatch{VirtualPath: &rewritten, UpdatedAt: &now},
		})
	}

	if err := s.records.BatchUpdate(ctx, items); err != nil {
		return fserr.From(fserr.CodeStoreUnavailable, "could not rewrite folder contents", oldFull, err)
	}

	return nil
}

// loadActive returns the record or NOT_FOUND; soft-deleted records are
// invisible to mutating operations.
func (s *Registry) loadActive(ctx context.Context, id string) (model.FileRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return model.FileRecord{}, wrapRecordErr(err, id)
	}
	if record.IsDeleted {
		return model.FileRecord{}, fserr.From(fserr.CodeNotFound, "entry is deleted", id, model.ErrNotFound)
	}

	return record, nil
}

// ensureNameFree checks for an active sibling with the same name. The check
// is read-then-write, so two concurrent creates can still race past it;
// the store does not enforce uniqueness.
func (s *Registry) ensureNameFree(ctx context.Context, scope string, path string, name string) error {
	siblings, err := s.records.QueryByScopeAndPath(ctx, scope, path, false)
	if err != nil {
		return fserr.From(fserr.CodeStoreUnavailable, "could not check siblings", path, err)
	}

	for _, sibling := range siblings {
		if sibling.Name == name {
			return fserr.From(fserr.CodeConflict, "name already in use", name, model.ErrConflict)
		}
	}

	return nil
}

func deletionPatch(actor model.Actor) store.RecordPatch {
	deleted := true
	now := time.Now().UTC()

	return store.RecordPatch{
		IsDeleted: &deleted,
		DeletedBy: &actor,
		DeletedAt: &now,
		UpdatedAt: &now,
	}
}

func wrapRecordErr(err error, id string) error {
	if errors.Is(err, model.ErrNotFound) {
		return fserr.From(fserr.CodeNotFound, "entry not found", id, err)
	}

	return fserr.From(fserr.CodeStoreUnavailable, "could not load entry", id, err)
}

func publish(bus event.Bus, t event.Type, payload any, actor model.Actor) {
	if bus == nil {
		return
	}

	bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ActorID:   actor.ID,
	})
}
