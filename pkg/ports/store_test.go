package ports_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// MockStore is a JSON-backed implementation of SessionStore for testing purposes.
type MockStore struct {
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]byte),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Serialize to simulate a real backend
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.data[sessionID] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	raw, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStoreContract_Mock(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}
