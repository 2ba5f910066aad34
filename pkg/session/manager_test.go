package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Snapshot
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Snapshot)
	}
	copied := *snap
	s.data[sessionID] = &copied
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.data[sessionID]; ok {
		copied := *snap
		return &copied, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, &domain.Snapshot{Answers: domain.NewAnswerStore()}))

	var wg sync.WaitGroup
	workers := 10
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = manager.WithLock(ctx, id, func(ctx context.Context) error {
				snap, err := store.Load(ctx, id)
				if err != nil {
					return err
				}
				snap.Answers = snap.Answers.Record(fmt.Sprintf("k%d", i), domain.TextAnswer("v"))
				return store.Save(ctx, id, snap)
			})
		}()
	}
	wg.Wait()

	final, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workers, final.Answers.Len(), "every read-modify-write must be serialized")
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	calls := 0
	init := func() *domain.Snapshot {
		calls++
		return &domain.Snapshot{Phase: domain.PhaseIdle}
	}

	snap, err := manager.LoadOrCreate(ctx, "s1", init)
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.SessionID)

	_, err = manager.LoadOrCreate(ctx, "s1", init)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "existing session is loaded, not re-created")

	require.NoError(t, manager.Delete(ctx, "s1"))
	_, err = manager.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
