package model

import "time"

type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Actor identifies who performed an action. Carried on records for
// provenance and on audit entries for history display.
type Actor struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// FileRecord is one entry per file or folder. There is no stored parent
// pointer: ancestry is reconstructed from VirtualPath, which holds the
// slash-delimited ancestor folder names without the record's own Name.
// The root is the empty path.
type FileRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        Kind       `json:"kind"`
	VirtualPath string     `json:"virtual_path"`
	Scope       string     `json:"scope"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	BlobKey     string     `json:"blob_key,omitempty"`
	IsDeleted   bool       `json:"is_deleted"`
	CreatedBy   Actor      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedBy   Actor      `json:"deleted_by"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}
