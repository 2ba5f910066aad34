package cli

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/adapters/api"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LocalStore = filepath.Join(t.TempDir(), "store", "funnel.db")
	return cfg
}

func TestBuild_LocalStore(t *testing.T) {
	s, err := Build(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.NotNil(t, s.Sessions)
	assert.NotNil(t, s.Submissions)
	assert.Nil(t, s.Locker)
	assert.Nil(t, s.Leads)
	assert.Nil(t, s.Funnels)
	assert.Nil(t, s.Generator)

	ports.RunSessionStoreContract(t, s.Sessions)
}

func TestBuild_SessionDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionDir = filepath.Join(t.TempDir(), "sessions")

	s, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ports.RunSessionStoreContract(t, s.Sessions)

	snap := &domain.Snapshot{SessionID: "s1", Document: testutils.SampleDocument(), Answers: domain.NewAnswerStore()}
	require.NoError(t, s.Sessions.Save(context.Background(), "s1", snap))
	assert.FileExists(t, filepath.Join(cfg.SessionDir, "s1.json"))
	assert.NotNil(t, s.Submissions, "submissions stay in the local database")
}

func TestBuild_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()

	s, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NotNil(t, s.Locker)
	require.NoError(t, s.Sessions.Save(context.Background(), "s1", &domain.Snapshot{SessionID: "s1", Phase: domain.PhaseIdle}))
	assert.True(t, mr.Exists("funnel:session:s1"))
}

func TestBuild_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	mr.Close()

	_, err := Build(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestBuild_APIClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.BaseURL = "http://persistence.test"

	s, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.IsType(t, &api.Client{}, s.Leads)
	assert.IsType(t, &api.Client{}, s.Funnels)
	assert.Nil(t, s.Publisher, "The HTTP API cannot publish")
}

func TestBuild_WithoutKeysSkipsOptionalBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Kafka.Brokers = nil

	s, err := Build(context.Background(), cfg, nil, WithGenerator(), WithEvents())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Nil(t, s.Generator)
	assert.Nil(t, s.Events)

	_, err = s.Enricher()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProtect(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	t.Run("Encrypted store keeps the contract", func(t *testing.T) {
		store, err := protect(memory.NewStore(), config.SecurityConfig{EncryptionKey: key})
		require.NoError(t, err)
		ports.RunSessionStoreContract(t, store)
	})

	t.Run("Snapshots are sealed at rest", func(t *testing.T) {
		raw := memory.NewStore()
		store, err := protect(raw, config.SecurityConfig{EncryptionKey: key, PIIPatterns: []string{"^email$"}})
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, store.Save(ctx, "s1", &domain.Snapshot{SessionID: "s1", Phase: domain.PhaseInProgress}))
		saved, err := raw.Load(ctx, "s1")
		require.NoError(t, err)
		assert.NotEmpty(t, saved.Sealed)
		assert.Nil(t, saved.Document)
	})

	t.Run("Invalid key", func(t *testing.T) {
		_, err := protect(memory.NewStore(), config.SecurityConfig{EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))})
		assert.Error(t, err)
	})

	t.Run("Invalid pattern", func(t *testing.T) {
		_, err := protect(memory.NewStore(), config.SecurityConfig{PIIPatterns: []string{"("}})
		assert.Error(t, err)
	})

	t.Run("Nothing configured", func(t *testing.T) {
		raw := memory.NewStore()
		store, err := protect(raw, config.SecurityConfig{})
		require.NoError(t, err)
		assert.Same(t, raw, store)
	})
}

func TestStack_Recorder(t *testing.T) {
	s, err := Build(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	sub := s.Recorder().Submit(ctx, domain.ContactInfo{Name: "Ada"}, domain.NewAnswerStore(), testutils.SampleDocument(), "")
	assert.Equal(t, domain.OriginLocal, sub.Origin)

	stored, err := s.Submissions.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, sub.ID, stored[0].ID)

	assert.Same(t, s.Recorder(), s.Recorder(), "controllers share one recorder")
}
