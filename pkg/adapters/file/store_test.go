package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/adapters/file"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SessionStore = (*file.Store)(nil)

func TestStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestStore_Files(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "sessions")
	store := file.New(dir)
	ctx := context.Background()

	t.Run("List Missing Directory", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Save Creates Directory", func(t *testing.T) {
		snap := &domain.Snapshot{
			SessionID:  "s1",
			Document:   testutils.SampleDocument(),
			Navigation: domain.NavigationState{CurrentStepID: "welcome", History: []string{"welcome"}},
			Answers:    domain.NewAnswerStore(),
			Phase:      domain.PhaseInProgress,
		}
		require.NoError(t, store.Save(ctx, "s1", snap))
		assert.FileExists(t, filepath.Join(dir, "s1.json"))

		// Overwrite keeps a single file
		snap.Navigation.CurrentStepID = "q1"
		require.NoError(t, store.Save(ctx, "s1", snap))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		loaded, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "q1", loaded.Navigation.CurrentStepID)
	})

	t.Run("Stray Files Ignored", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-s2-123.json"), []byte("{"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, ids)
	})

	t.Run("Delete Missing", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "ghost"))
	})

	t.Run("Rejects Path Ids", func(t *testing.T) {
		for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
			_, err := store.Load(ctx, id)
			assert.Error(t, err, id)
			assert.NotErrorIs(t, err, domain.ErrSessionNotFound, id)
		}
	})
}
