package service

import (
	"context"
	"errors"

	"go-file-vault/internal/model"
	"go-file-vault/internal/store"
	"go-file-vault/pkg/fserr"
)

// undoable lists the audit actions the engine can reverse. Version actions
// are excluded: version deletion is permanent, and restoring is already its
// own reversal through the version list.
var undoable = map[model.AuditAction]bool{
	model.ActionUpload:       true,
	model.ActionCreateFolder: true,
	model.ActionRename:       true,
	model.ActionMove:         true,
	model.ActionDeleteFile:   true,
	model.ActionDeleteFolder: true,
}

// UndoOutcome describes what an undo actually did.
type UndoOutcome struct {
	UndoneAction model.AuditAction `json:"undone_action"`
	FileID       string            `json:"file_id"`
	FileName     string            `json:"file_name"`
}

// Undo reverses actions recorded in the audit log. Each undo validates the
// entry against the record's current state first: an entry superseded by
// later changes is rejected as stale rather than blindly replayed.
type Undo struct {
	registry *Registry
	records  store.RecordStore
	audit    *Audit
}

func NewUndo(registry *Registry, records store.RecordStore, audit *Audit) *Undo {
	return &Undo{
		registry: registry,
		records:  records,
		audit:    audit,
	}
}

func (s *Undo) CanUndo(action model.AuditAction) bool {
	return undoable[action]
}

// Undo reverses the given audit entry. The reversal itself is recorded as
// an informational undo entry; that entry is not undoable.
func (s *Undo) Undo(ctx context.Context, entry model.AuditEntry, actor model.Actor) (UndoOutcome, error) {
	if !s.CanUndo(entry.Action) {
		return UndoOutcome{}, fserr.From(fserr.CodeUnsupported, "action cannot be undone", string(entry.Action), model.ErrUnsupported)
	}

	var err error
	switch entry.Action {
	case model.ActionUpload, model.ActionCreateFolder:
		err = s.undoCreate(ctx, entry, actor)
	case model.ActionRename:
		err = s.undoRename(ctx, entry, actor)
	case model.ActionMove:
		err = s.undoMove(ctx, entry, actor)
	case model.ActionDeleteFile, model.ActionDeleteFolder:
		err = s.undoDelete(ctx, entry, actor)
	}
	if err != nil {
		return UndoOutcome{}, err
	}

	s.audit.Append(ctx, model.AuditEntry{
		Action:   model.ActionUndo,
		FileID:   entry.FileID,
		FileName: entry.FileName,
		Scope:    entry.Scope,
		Path:     entry.Path,
		Actor:    actor,
		Metadata: map[string]string{
			model.MetaUndoneAction:  string(entry.Action),
			model.MetaUndoneEntryID: entry.ID,
		},
	}, false)

	return UndoOutcome{
		UndoneAction: entry.Action,
		FileID:       entry.FileID,
		FileName:     entry.FileName,
	}, nil
}

// undoCreate removes the created entry again. A record that has vanished
// since the create means the entry is stale, not that the undo succeeded.
func (s *Undo) undoCreate(ctx context.Context, entry model.AuditEntry, actor model.Actor) error {
	err := s.registry.SoftDelete(ctx, entry.FileID, actor)
	if err != nil && fserr.CodeOf(err) == fserr.CodeNotFound {
		return fserr.From(fserr.CodeStale, "entry no longer exists", entry.FileID, model.ErrStale)
	}

	return err
}

func (s *Undo) undoRename(ctx context.Context, entry model.AuditEntry, actor model.Actor) error {
	oldName := entry.Metadata[model.MetaOldName]
	newName := entry.Metadata[model.MetaNewName]
	if oldName == "" || newName == "" {
		return fserr.From(fserr.CodeStale, "rename entry is missing name metadata", entry.ID, model.ErrStale)
	}

	record, err := s.currentRecord(ctx, entry.FileID)
	if err != nil {
		return err
	}
	if record.IsDeleted || record.Name != newName {
		return fserr.From(fserr.CodeStale, "entry was changed after the rename", entry.FileID, model.ErrStale)
	}

	_, err = s.registry.Rename(ctx, entry.FileID, oldName, actor)
	return err
}

func (s *Undo) undoMove(ctx context.Context, entry model.AuditEntry, actor model.Actor) error {
	record, err := s.currentRecord(ctx, entry.FileID)
	if err != nil {
		return err
	}
	if record.IsDeleted || record.VirtualPath != entry.TargetPath {
		return fserr.From(fserr.CodeStale, "entry was moved again after this move", entry.FileID, model.ErrStale)
	}

	_, err = s.registry.Move(ctx, entry.FileID, entry.SourcePath, actor)
	return err
}

// undoDelete restores the flagged record. For a folder deletion only the
// folder record itself comes back; descendants flagged alongside it stay
// deleted and are restored individually.
func (s *Undo) undoDelete(ctx context.Context, entry model.AuditEntry, actor model.Actor) error {
	record, err := s.currentRecord(ctx, entry.FileID)
	if err != nil {
		return err
	}
	if !record.IsDeleted {
		return fserr.From(fserr.CodeStale, "entry was already restored", entry.FileID, model.ErrStale)
	}

	_, err = s.registry.Restore(ctx, entry.FileID, actor)
	return err
}

func (s *Undo) currentRecord(ctx context.Context, id string) (model.FileRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.FileRecord{}, fserr.From(fserr.CodeStale, "entry no longer exists", id, model.ErrStale)
		}
		return model.FileRecord{}, fserr.From(fserr.CodeStoreUnavailable, "could not load entry", id, err)
	}

	return record, nil
}
