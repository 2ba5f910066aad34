package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchSessionID(t *testing.T) {
	a := WatchSessionID("funnels/a.yaml")
	assert.Equal(t, a, WatchSessionID("funnels/a.yaml"))
	assert.NotEqual(t, a, WatchSessionID("funnels/b.yaml"))
	assert.Regexp(t, `^watch-[0-9a-f]{8}$`, a)
}

func TestReloadSnapshot(t *testing.T) {
	doc := testutils.SampleDocument()
	inProgress := func(stepID string) *domain.Snapshot {
		return &domain.Snapshot{
			SessionID:  "s1",
			Document:   testutils.QuestionsDocument("old"),
			Phase:      domain.PhaseInProgress,
			Navigation: domain.NavigationState{CurrentStepID: stepID, History: []string{"welcome", stepID}},
		}
	}

	t.Run("Current step kept", func(t *testing.T) {
		snap := reloadSnapshot(inProgress("q2"), doc)
		require.NotNil(t, snap)
		assert.Same(t, doc, snap.Document)
		assert.Equal(t, "q2", snap.Navigation.CurrentStepID)
		assert.Equal(t, []string{"welcome", "q2"}, snap.Navigation.History)
	})

	t.Run("Current step removed", func(t *testing.T) {
		assert.Nil(t, reloadSnapshot(inProgress("gone"), doc))
	})

	t.Run("Idle run", func(t *testing.T) {
		snap := reloadSnapshot(&domain.Snapshot{Phase: domain.PhaseIdle}, doc)
		require.NotNil(t, snap)
		assert.Same(t, doc, snap.Document)
	})

	t.Run("Completed run", func(t *testing.T) {
		done := inProgress("")
		done.Navigation.Completed = true
		assert.NotNil(t, reloadSnapshot(done, doc))
	})

	t.Run("Error phase restarts", func(t *testing.T) {
		failed := inProgress("q1")
		failed.Phase = domain.PhaseError
		failed.ErrorKind = domain.ErrorKindInvalidBranchTarget
		assert.Nil(t, reloadSnapshot(failed, doc))
	})
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: []\n"), 0o644))

	changes, err := WatchFile(t.Context(), path, logging.NewNop())
	require.NoError(t, err)

	// Other files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	select {
	case name := <-changes:
		t.Fatalf("Unexpected change for %s", name)
	case <-time.After(3 * watchDebounce):
	}

	require.NoError(t, os.WriteFile(path, []byte("steps: []\n# edited\n"), 0o644))
	select {
	case name := <-changes:
		assert.Equal(t, "plans.yaml", name)
	case <-time.After(2 * time.Second):
		t.Fatal("No change reported")
	}
}
