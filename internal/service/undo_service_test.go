package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-vault/internal/model"
	"go-file-vault/pkg/fserr"
)

// lastEntry pulls the newest audit entry matching the action, which is the
// entry a history view would offer for undo.
func (e *testEnv) lastEntry(t *testing.T, action model.AuditAction) model.AuditEntry {
	t.Helper()

	for _, entry := range e.auditEntries(t) {
		if entry.Action == action {
			return entry
		}
	}

	t.Fatalf("no %s entry in the audit log", action)
	return model.AuditEntry{}
}

func TestUndoCanUndo(t *testing.T) {
	env := newTestEnv(t)

	for _, action := range []model.AuditAction{
		model.ActionUpload, model.ActionCreateFolder, model.ActionRename,
		model.ActionMove, model.ActionDeleteFile, model.ActionDeleteFolder,
	} {
		assert.True(t, env.undo.CanUndo(action), "%s should be undoable", action)
	}

	for _, action := range []model.AuditAction{
		model.ActionCreateVersion, model.ActionRestoreVersion,
		model.ActionDeleteVersion, model.ActionUndo,
	} {
		assert.False(t, env.undo.CanUndo(action), "%s should not be undoable", action)
	}
}

func TestUndoUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.registry.CreateFile(ctx, testScope, "", "new.txt", []byte("n"), "text/plain", testActor)
	require.NoError(t, err)
	entry := env.lastEntry(t, model.ActionUpload)

	t.Run("removes the uploaded file", func(t *testing.T) {
		outcome, err := env.undo.Undo(ctx, entry, testActor)
		require.NoError(t, err)
		assert.Equal(t, model.ActionUpload, outcome.UndoneAction)
		assert.Equal(t, file.ID, outcome.FileID)

		got, err := env.registry.Get(ctx, file.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted)
	})

	t.Run("a second undo of the same entry is stale", func(t *testing.T) {
		_, err := env.undo.Undo(ctx, entry, testActor)
		assert.Equal(t, fserr.CodeStale, fserr.CodeOf(err))
	})

	t.Run("logs the undo itself", func(t *testing.T) {
		undoEntry := env.lastEntry(t, model.ActionUndo)
		assert.Equal(t, string(model.ActionUpload), undoEntry.Metadata[model.MetaUndoneAction])
		assert.Equal(t, entry.ID, undoEntry.Metadata[model.MetaUndoneEntryID])
	})
}

func TestUndoRename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.registry.CreateFile(ctx, testScope, "", "old.txt", []byte("o"), "text/plain", testActor)
	require.NoError(t, err)
	_, err = env.registry.Rename(ctx, file.ID, "renamed.txt", testActor)
	require.NoError(t, err)
	entry := env.lastEntry(t, model.ActionRename)

	t.Run("restores the previous name", func(t *testing.T) {
		_, err := env.undo.Undo(ctx, entry, testActor)
		require.NoError(t, err)

		got, err := env.registry.Get(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "old.txt", got.Name)
	})

	t.Run("rejects the entry once the name changed again", func(t *testing.T) {
		_, err := env.registry.Rename(ctx, file.ID, "third.txt", testActor)
		require.NoError(t, err)

		_, err = env.undo.Undo(ctx, entry, testActor)
		assert.Equal(t, fserr.CodeStale, fserr.CodeOf(err))
	})
}

func TestUndoMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registry.CreateFolder(ctx, testScope, "", "archive", testActor)
	require.NoError(t, err)
	file, err := env.registry.CreateFile(ctx, testScope, "inbox", "mail.txt", []byte("m"), "text/plain", testActor)
	require.NoError(t, err)
	_, err = env.registry.Move(ctx, file.ID, "archive", testActor)
	require.NoError(t, err)
	entry := env.lastEntry(t, model.ActionMove)

	t.Run("moves the file back to its source", func(t *testing.T) {
		_, err := env.undo.Undo(ctx, entry, testActor)
		require.NoError(t, err)

		got, err := env.registry.Get(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "inbox", got.VirtualPath)
	})

	t.Run("rejects the entry once the file moved elsewhere", func(t *testing.T) {
		_, err := env.registry.Move(ctx, file.ID, "archive", testActor)
		require.NoError(t, err)
		_, err = env.registry.Move(ctx, file.ID, "", testActor)
		require.NoError(t, err)

		_, err = env.undo.Undo(ctx, entry, testActor)
		assert.Equal(t, fserr.CodeStale, fserr.CodeOf(err))
	})
}

func TestUndoDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.registry.CreateFile(ctx, testScope, "", "gone.txt", []byte("g"), "text/plain", testActor)
	require.NoError(t, err)
	require.NoError(t, env.registry.SoftDelete(ctx, file.ID, testActor))
	entry := env.lastEntry(t, model.ActionDeleteFile)

	t.Run("restores the flagged record", func(t *testing.T) {
		_, err := env.undo.Undo(ctx, entry, testActor)
		require.NoError(t, err)

		got, err := env.registry.Get(ctx, file.ID)
		require.NoError(t, err)
		assert.False(t, got.IsDeleted)
	})

	t.Run("rejects the entry once the record is active again", func(t *testing.T) {
		_, err := env.undo.Undo(ctx, entry, testActor)
		assert.Equal(t, fserr.CodeStale, fserr.CodeOf(err))
	})
}

func TestUndoDeleteFolderRestoresOnlyTheFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.registry.CreateFolder(ctx, testScope, "", "bundle", testActor)
	require.NoError(t, err)
	child, err := env.registry.CreateFile(ctx, testScope, "bundle", "inner.txt", []byte("i"), "text/plain", testActor)
	require.NoError(t, err)
	require.NoError(t, env.registry.SoftDelete(ctx, folder.ID, testActor))

	var entry model.AuditEntry
	for _, candidate := range env.auditEntries(t) {
		if candidate.Action == model.ActionDeleteFolder && candidate.Metadata[model.MetaParentDeletion] == "" {
			entry = candidate
			break
		}
	}
	require.NotEmpty(t, entry.ID)

	_, err = env.undo.Undo(ctx, entry, testActor)
	require.NoError(t, err)

	got, err := env.registry.Get(ctx, folder.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)

	got, err = env.registry.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted, "descendants stay deleted until restored individually")
}

func TestUndoRejectsUnsupportedActions(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.undo.Undo(context.Background(), model.AuditEntry{Action: model.ActionRestoreVersion}, testActor)
	assert.Equal(t, fserr.CodeUnsupported, fserr.CodeOf(err))
}

func TestUndoVanishedRecordIsStale(t *testing.T) {
	env := newTestEnv(t)

	entry := model.AuditEntry{ID: "ghost", Action: model.ActionRename, FileID: "missing",
		Metadata: map[string]string{model.MetaOldName: "a", model.MetaNewName: "b"}}

	_, err := env.undo.Undo(context.Background(), entry, testActor)
	assert.Equal(t, fserr.CodeStale, fserr.CodeOf(err))
}
