package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-vault/internal/model"
	"go-file-vault/pkg/fserr"
)

func TestRegistryCreateFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("stores content and registers the record", func(t *testing.T) {
		record, err := env.registry.CreateFile(ctx, testScope, "docs", "report.pdf", []byte("content"), "application/pdf", testActor)
		require.NoError(t, err)

		assert.NotEmpty(t, record.ID)
		assert.Equal(t, model.KindFile, record.Kind)
		assert.Equal(t, "docs", record.VirtualPath)
		assert.Equal(t, int64(7), record.SizeBytes)
		assert.NotEmpty(t, record.BlobKey)

		data, err := env.blobs.Get(ctx, record.BlobKey)
		require.NoError(t, err)
		assert.Equal(t, []byte("content"), data)
	})

	t.Run("rejects an active sibling with the same name", func(t *testing.T) {
		_, err := env.registry.CreateFile(ctx, testScope, "docs", "report.pdf", []byte("other"), "application/pdf", testActor)
		require.Error(t, err)
		assert.Equal(t, fserr.CodeConflict, fserr.CodeOf(err))
	})

	t.Run("rejects empty and separator-bearing names", func(t *testing.T) {
		_, err := env.registry.CreateFile(ctx, testScope, "docs", "  ", nil, "", testActor)
		assert.Equal(t, fserr.CodeBadRequest, fserr.CodeOf(err))

		_, err = env.registry.CreateFolder(ctx, testScope, "", "a/b", testActor)
		assert.Equal(t, fserr.CodeBadRequest, fserr.CodeOf(err))
	})
}

func TestRegistryList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registry.CreateFile(ctx, testScope, "", "zebra.txt", []byte("z"), "text/plain", testActor)
	require.NoError(t, err)
	_, err = env.registry.CreateFile(ctx, testScope, "", "Apple.txt", []byte("a"), "text/plain", testActor)
	require.NoError(t, err)
	_, err = env.registry.CreateFolder(ctx, testScope, "", "zoo", testActor)
	require.NoError(t, err)
	_, err = env.registry.CreateFolder(ctx, testScope, "", "Archive", testActor)
	require.NoError(t, err)

	entries, err := env.registry.List(ctx, testScope, "")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := []string{entries[0].Name, entries[1].Name, entries[2].Name, entries[3].Name}
	assert.Equal(t, []string{"Archive", "zoo", "Apple.txt", "zebra.txt"}, names)
}

func TestRegistryRenameFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.registry.CreateFolder(ctx, testScope, "", "A", testActor)
	require.NoError(t, err)
	child, err := env.registry.CreateFile(ctx, testScope, "A", "one.txt", []byte("1"), "text/plain", testActor)
	require.NoError(t, err)
	sub, err := env.registry.CreateFolder(ctx, testScope, "A", "sub", testActor)
	require.NoError(t, err)
	deep, err := env.registry.CreateFile(ctx, testScope, "A/sub", "two.txt", []byte("2"), "text/plain", testActor)
	require.NoError(t, err)

	t.Run("rewrites every descendant path", func(t *testing.T) {
		_, err := env.registry.Rename(ctx, folder.ID, "B", testActor)
		require.NoError(t, err)

		got, err := env.registry.Get(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, "B", got.VirtualPath)

		got, err = env.registry.Get(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, "B", got.VirtualPath)

		got, err = env.registry.Get(ctx, deep.ID)
		require.NoError(t, err)
		assert.Equal(t, "B/sub", got.VirtualPath)
	})

	t.Run("renaming back restores the original tree", func(t *testing.T) {
		_, err := env.registry.Rename(ctx, folder.ID, "A", testActor)
		require.NoError(t, err)

		got, err := env.registry.Get(ctx, deep.ID)
		require.NoError(t, err)
		assert.Equal(t, "A/sub", got.VirtualPath)
	})

	t.Run("records old and new names in the audit log", func(t *testing.T) {
		entries, err := env.audit.Query(ctx, testScope, model.AuditFilter{Action: model.ActionRename}, 10)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, "B", entries[0].Metadata[model.MetaOldName])
		assert.Equal(t, "A", entries[0].Metadata[model.MetaNewName])
	})

	t.Run("same name is a no-op", func(t *testing.T) {
		before := len(env.auditEntries(t))
		_, err := env.registry.Rename(ctx, folder.ID, "A", testActor)
		require.NoError(t, err)
		assert.Equal(t, before, len(env.auditEntries(t)))
	})
}

func TestRegistryRenameDoesNotTouchLookalikePaths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ab, err := env.registry.CreateFolder(ctx, testScope, "", "AB", testActor)
	require.NoError(t, err)
	inAB, err := env.registry.CreateFile(ctx, testScope, "AB", "keep.txt", []byte("k"), "text/plain", testActor)
	require.NoError(t, err)

	a, err := env.registry.CreateFolder(ctx, testScope, "", "A", testActor)
	require.NoError(t, err)

	_, err = env.registry.Rename(ctx, a.ID, "C", testActor)
	require.NoError(t, err)

	got, err := env.registry.Get(ctx, ab.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB", got.Name)

	got, err = env.registry.Get(ctx, inAB.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB", got.VirtualPath)
}

func TestRegistryMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	x, err := env.registry.CreateFolder(ctx, testScope, "", "X", testActor)
	require.NoError(t, err)
	inX, err := env.registry.CreateFile(ctx, testScope, "X", "doc.txt", []byte("d"), "text/plain", testActor)
	require.NoError(t, err)
	_, err = env.registry.CreateFolder(ctx, testScope, "", "Y", testActor)
	require.NoError(t, err)

	t.Run("rejects moving a folder into its own subtree", func(t *testing.T) {
		_, err := env.registry.Move(ctx, x.ID, "X", testActor)
		assert.Equal(t, fserr.CodeInvalidOperation, fserr.CodeOf(err))

		_, err = env.registry.Move(ctx, x.ID, "X/nested", testActor)
		assert.Equal(t, fserr.CodeInvalidOperation, fserr.CodeOf(err))
	})

	t.Run("moves the folder and its contents", func(t *testing.T) {
		moved, err := env.registry.Move(ctx, x.ID, "Y", testActor)
		require.NoError(t, err)
		assert.Equal(t, "Y", moved.VirtualPath)

		got, err := env.registry.Get(ctx, inX.ID)
		require.NoError(t, err)
		assert.Equal(t, "Y/X", got.VirtualPath)
	})

	t.Run("records source and target paths", func(t *testing.T) {
		entries, err := env.audit.Query(ctx, testScope, model.AuditFilter{Action: model.ActionMove}, 10)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, "", entries[0].SourcePath)
		assert.Equal(t, "Y", entries[0].TargetPath)
	})

	t.Run("audits the path the entry had when moved", func(t *testing.T) {
		_, err := env.registry.Move(ctx, inX.ID, "", testActor)
		require.NoError(t, err)

		entries, err := env.audit.Query(ctx, testScope, model.AuditFilter{Action: model.ActionMove}, 10)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, "Y/X", entries[0].Path)
		assert.Equal(t, "Y/X", entries[0].SourcePath)
		assert.Equal(t, "", entries[0].TargetPath)
	})

	t.Run("rejects a name collision at the target", func(t *testing.T) {
		other, err := env.registry.CreateFolder(ctx, testScope, "", "X", testActor)
		require.NoError(t, err)

		_, err = env.registry.Move(ctx, other.ID, "Y", testActor)
		assert.Equal(t, fserr.CodeConflict, fserr.CodeOf(err))
	})
}

func TestRegistryDeleteFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.registry.CreateFolder(ctx, testScope, "", "project", testActor)
	require.NoError(t, err)
	f1, err := env.registry.CreateFile(ctx, testScope, "project", "a.txt", []byte("a"), "text/plain", testActor)
	require.NoError(t, err)
	sub, err := env.registry.CreateFolder(ctx, testScope, "project", "assets", testActor)
	require.NoError(t, err)
	f2, err := env.registry.CreateFile(ctx, testScope, "project/assets", "b.png", []byte("b"), "image/png", testActor)
	require.NoError(t, err)

	require.NoError(t, env.registry.SoftDelete(ctx, folder.ID, testActor))

	t.Run("flags the folder and every descendant", func(t *testing.T) {
		for _, id := range []string{folder.ID, f1.ID, sub.ID, f2.ID} {
			got, err := env.registry.Get(ctx, id)
			require.NoError(t, err)
			assert.True(t, got.IsDeleted, "record %s should be deleted", got.Name)
			assert.Equal(t, testActor.ID, got.DeletedBy.ID)
		}
	})

	t.Run("snapshots each file before releasing its content", func(t *testing.T) {
		for _, id := range []string{f1.ID, f2.ID} {
			versions, err := env.versions.List(ctx, id)
			require.NoError(t, err)
			assert.Len(t, versions, 1)
		}

		// Only the two snapshot copies remain; live blobs are gone.
		assert.Equal(t, 2, env.blobs.Len())
	})

	t.Run("hides the subtree from listing", func(t *testing.T) {
		entries, err := env.registry.List(ctx, testScope, "")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("marks descendant log entries as parent deletions", func(t *testing.T) {
		entries := env.auditEntries(t)

		var topLevel, cascaded int
		for _, entry := range entries {
			if entry.Action != model.ActionDeleteFile && entry.Action != model.ActionDeleteFolder {
				continue
			}
			if entry.Metadata[model.MetaParentDeletion] == "true" {
				cascaded++
			} else {
				topLevel++
			}
		}
		assert.Equal(t, 1, topLevel)
		assert.Equal(t, 3, cascaded)
	})
}

func TestRegistryRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.registry.CreateFile(ctx, testScope, "", "notes.txt", []byte("n"), "text/plain", testActor)
	require.NoError(t, err)
	require.NoError(t, env.registry.SoftDelete(ctx, file.ID, testActor))

	t.Run("flips the record back and rejects a second restore", func(t *testing.T) {
		restored, err := env.registry.Restore(ctx, file.ID, testActor)
		require.NoError(t, err)
		assert.False(t, restored.IsDeleted)
		assert.Empty(t, restored.DeletedBy.ID)
		assert.Nil(t, restored.DeletedAt)

		_, err = env.registry.Restore(ctx, file.ID, testActor)
		assert.Equal(t, fserr.CodeStale, fserr.CodeOf(err))
	})

	t.Run("restored content comes back through versions", func(t *testing.T) {
		// The live blob was released on delete; the record's key dangles.
		restored, err := env.registry.Get(ctx, file.ID)
		require.NoError(t, err)
		_, err = env.blobs.Get(ctx, restored.BlobKey)
		require.Error(t, err)

		versions, err := env.versions.List(ctx, file.ID)
		require.NoError(t, err)
		require.Len(t, versions, 1)

		recovered, err := env.versions.Restore(ctx, file.ID, versions[0].ID, testActor)
		require.NoError(t, err)

		data, err := env.blobs.Get(ctx, recovered.BlobKey)
		require.NoError(t, err)
		assert.Equal(t, []byte("n"), data)
	})
}

func TestRegistryReplace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.registry.CreateFile(ctx, testScope, "", "draft.txt", []byte("v1"), "text/plain", testActor)
	require.NoError(t, err)

	updated, err := env.registry.Replace(ctx, file.ID, []byte("v2-longer"), "text/plain", testActor)
	require.NoError(t, err)
	assert.NotEqual(t, file.BlobKey, updated.BlobKey)
	assert.Equal(t, int64(9), updated.SizeBytes)

	data, _, err := env.registry.Content(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2-longer"), data)

	versions, err := env.versions.List(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, int64(2), versions[0].SizeBytes)

	// Old live blob released, new live blob plus the snapshot copy remain.
	assert.Equal(t, 2, env.blobs.Len())
}

func TestRegistryGetUnknownID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.registry.Get(context.Background(), "missing")
	assert.Equal(t, fserr.CodeNotFound, fserr.CodeOf(err))
}

// auditEntries drains the raw log newest-first for assertions that need the
// unfiltered stream.
func (e *testEnv) auditEntries(t *testing.T) []model.AuditEntry {
	t.Helper()

	entries, err := e.auditLog.Scan(context.Background(), testScope, 1000)
	require.NoError(t, err)
	return entries
}
