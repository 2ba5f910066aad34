package funnel_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, funnel.Version)
}

func TestNew_LoadsYAML(t *testing.T) {
	raw, err := schema.EncodeYAML(testutils.SampleDocument())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	f, err := funnel.New(path)
	require.NoError(t, err)
	assert.Equal(t, "plans", f.Name)
	assert.Equal(t, 5, f.Document().Len())
	assert.NoError(t, f.Validate())
}

func TestNew_Errors(t *testing.T) {
	_, err := funnel.New("")
	assert.Error(t, err)

	_, err = funnel.New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStart_RunsToCompletion(t *testing.T) {
	f := funnel.FromDocument(testutils.QuestionsDocument("a", "b"))
	ctx := context.Background()

	c, err := f.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInProgress, c.Phase())

	for _, text := range []string{"one", "two"} {
		answer := domain.TextAnswer(text)
		require.NoError(t, c.Dispatch(ctx, controller.Intent{Type: controller.IntentAnswer, Answer: &answer}))
	}
	assert.True(t, c.IsCompleted())
	assert.Equal(t, domain.PhaseCompleted, c.Phase())
}

func TestStart_EmptyDocument(t *testing.T) {
	f := funnel.FromDocument(&domain.Document{})

	c, err := f.Start(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Equal(t, domain.PhaseError, c.Phase())
	assert.Equal(t, domain.ErrorKindEmptyDocument, c.ErrorKind())
}
