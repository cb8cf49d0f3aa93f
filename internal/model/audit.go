package model

import "time"

type AuditAction string

const (
	ActionUpload         AuditAction = "upload"
	ActionCreateFolder   AuditAction = "create_folder"
	ActionRename         AuditAction = "rename"
	ActionMove           AuditAction = "move"
	ActionDeleteFile     AuditAction = "delete_file"
	ActionDeleteFolder   AuditAction = "delete_folder"
	ActionCreateVersion  AuditAction = "create_version"
	ActionRestoreVersion AuditAction = "restore_version"
	ActionDeleteVersion  AuditAction = "delete_version"
	ActionUndo           AuditAction = "undo"
)

// Metadata keys used by specific actions.
const (
	MetaOldName        = "old_name"
	MetaNewName        = "new_name"
	MetaParentDeletion = "parent_deletion"
	MetaVersionID      = "version_id"
	MetaUndoneAction   = "undone_action"
	MetaUndoneEntryID  = "undone_entry_id"
)

// AuditEntry records one externally-visible mutating action. Entries are
// append-only. Path holds the entry's virtual path at the time of the
// action; SourcePath/TargetPath are populated for move actions only.
type AuditEntry struct {
	ID         string            `json:"id"`
	Action     AuditAction       `json:"action"`
	FileID     string            `json:"file_id"`
	FileName   string            `json:"file_name"`
	Scope      string            `json:"scope"`
	Path       string            `json:"path"`
	SourcePath string            `json:"source_path,omitempty"`
	TargetPath string            `json:"target_path,omitempty"`
	Actor      Actor             `json:"actor"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type AuditFilter struct {
	Folder string
	Action AuditAction
	Search string
}
