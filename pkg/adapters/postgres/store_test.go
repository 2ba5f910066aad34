package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/adapters/postgres"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openStore connects to FUNNEL_TEST_DATABASE_URL and skips when it is unset.
func openStore(t *testing.T) *postgres.Store {
	t.Helper()
	url := os.Getenv("FUNNEL_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FUNNEL_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgres_PublishAndLoad(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	published, err := store.Publish(ctx, "Plans", "Find your plan", testutils.SampleDocument())
	require.NoError(t, err)
	require.NotEmpty(t, published.ID)

	loaded, err := store.GetPublishedFunnel(ctx, published.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plans", loaded.Title)
	assert.Equal(t, 5, loaded.Document.Len())

	_, err = store.GetPublishedFunnel(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFunnelNotFound)
}

func TestPostgres_CreateLead(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	published, err := store.Publish(ctx, "Plans", "", testutils.SampleDocument())
	require.NoError(t, err)

	receipt, err := store.CreateLead(ctx, ports.LeadRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Answers:  domain.NewAnswerStore().Record("q1", domain.TextAnswer("Expert")),
		FunnelID: published.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)
	assert.False(t, receipt.CreatedAt.IsZero())

	_, err = store.CreateLead(ctx, ports.LeadRequest{FunnelID: "unpublished"})
	assert.ErrorIs(t, err, domain.ErrFunnelNotFound)
}
