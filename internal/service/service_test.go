package service

import (
	"testing"

	"go-file-vault/internal/event"
	"go-file-vault/internal/model"
	"go-file-vault/internal/store"
)

var testActor = model.Actor{ID: "actor-1", DisplayName: "Test User", Role: "admin"}

const testScope = "workspace-1"

type testEnv struct {
	records    *store.MemoryRecordStore
	blobs      *store.MemoryBlobStore
	versionRec *store.MemoryVersionStore
	auditLog   *store.MemoryAuditStore

	audit    *Audit
	versions *Versions
	registry *Registry
	undo     *Undo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	records := store.NewMemoryRecordStore()
	blobs := store.NewMemoryBlobStore()
	versionRec := store.NewMemoryVersionStore()
	auditLog := store.NewMemoryAuditStore()

	audit := NewAudit(auditLog, nil, 50)
	versions := NewVersions(versionRec, records, blobs, audit, event.NewBus())
	registry := NewRegistry(records, blobs, versions, audit, event.NewBus())
	undo := NewUndo(registry, records, audit)

	return &testEnv{
		records:    records,
		blobs:      blobs,
		versionRec: versionRec,
		auditLog:   auditLog,
		audit:      audit,
		versions:   versions,
		registry:   registry,
		undo:       undo,
	}
}
