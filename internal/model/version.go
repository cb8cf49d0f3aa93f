package model

import "time"

// Version is an immutable snapshot of a file's prior content, taken before
// a destructive change (replace, delete, restore). It owns its own blob
// copy, so its lifetime is independent of the original file's blob.
// OriginalFileID is a lookup reference, not ownership.
type Version struct {
	ID             string    `json:"id"`
	OriginalFileID string    `json:"original_file_id"`
	OriginalName   string    `json:"original_name"`
	BlobKey        string    `json:"blob_key"`
	SizeBytes      int64     `json:"size_bytes"`
	ContentType    string    `json:"content_type"`
	SnapshotAt     time.Time `json:"snapshot_at"`
	CreatedBy      Actor     `json:"created_by"`
}
