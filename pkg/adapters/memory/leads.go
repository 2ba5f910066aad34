package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/funnel/pkg/ports"
	"github.com/google/uuid"
)

// Leads implements ports.LeadService in memory. It issues UUIDs and keeps
// every request it accepted.
type Leads struct {
	mu       sync.Mutex
	requests []ports.LeadRequest
	now      func() time.Time
}

// NewLeads creates an in-memory lead service.
func NewLeads() *Leads {
	return &Leads{now: time.Now}
}

func (l *Leads) CreateLead(ctx context.Context, req ports.LeadRequest) (ports.LeadReceipt, error) {
	if err := ctx.Err(); err != nil {
		return ports.LeadReceipt{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	return ports.LeadReceipt{ID: uuid.NewString(), CreatedAt: l.now().UTC()}, nil
}

// Requests returns the accepted requests in arrival order.
func (l *Leads) Requests() []ports.LeadRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ports.LeadRequest(nil), l.requests...)
}
