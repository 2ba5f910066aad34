package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/google/uuid"
)

// Funnels implements ports.FunnelSource and ports.FunnelPublisher using an in-memory map.
type Funnels struct {
	mu      sync.RWMutex
	funnels map[string]*ports.PublishedFunnel
}

// NewFunnels creates a source serving the given documents by id.
func NewFunnels(docs map[string]*domain.Document) *Funnels {
	f := &Funnels{funnels: make(map[string]*ports.PublishedFunnel, len(docs))}
	for id, doc := range docs {
		f.funnels[id] = &ports.PublishedFunnel{ID: id, Title: id, Document: doc}
	}
	return f
}

// Publish stores doc under a new id.
func (f *Funnels) Publish(ctx context.Context, title, description string, doc *domain.Document) (*ports.PublishedFunnel, error) {
	if doc == nil {
		return nil, fmt.Errorf("publish %q: %w", title, domain.ErrEmptyDocument)
	}
	p := &ports.PublishedFunnel{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Document:    doc,
		CreatedAt:   time.Now().UTC(),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funnels[p.ID] = p
	out := *p
	return &out, nil
}

// GetPublishedFunnel retrieves a funnel by id.
func (f *Funnels) GetPublishedFunnel(ctx context.Context, id string) (*ports.PublishedFunnel, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.funnels[id]
	if !ok {
		return nil, fmt.Errorf("funnel %q: %w", id, domain.ErrFunnelNotFound)
	}
	out := *p
	return &out, nil
}

// IDs returns all funnel ids, sorted.
func (f *Funnels) IDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]string, 0, len(f.funnels))
	for id := range f.funnels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
