package event

type Type string

const (
	TypeFileCreated     Type = "file.created"
	TypeFolderCreated   Type = "folder.created"
	TypeFileRenamed     Type = "file.renamed"
	TypeFileMoved       Type = "file.moved"
	TypeFileDeleted     Type = "file.deleted"
	TypeFileRestored    Type = "file.restored"
	TypeVersionCreated  Type = "version.created"
	TypeVersionRestored Type = "version.restored"
	TypeVersionDeleted  Type = "version.deleted"
	TypeBatchCompleted  Type = "batch.completed"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
