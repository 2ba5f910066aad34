package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
)

// LeadRequest is the payload sent to the persistence service.
type LeadRequest struct {
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Phone      string             `json:"phone"`
	Subscribed bool               `json:"subscribed"`
	Answers    domain.AnswerStore `json:"answers"`
	FunnelID   string             `json:"funnelId"`
}

// LeadReceipt is what the persistence service returns for a created lead.
type LeadReceipt struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeadService creates leads on the persistence service.
type LeadService interface {
	CreateLead(ctx context.Context, req LeadRequest) (LeadReceipt, error)
}

// PublishedFunnel is a funnel as served by the public endpoint.
type PublishedFunnel struct {
	ID          string
	Title       string
	Description string
	Document    *domain.Document
	CreatedAt   time.Time
}

// FunnelSource loads published funnels. Unknown ids fail with domain.ErrFunnelNotFound.
type FunnelSource interface {
	GetPublishedFunnel(ctx context.Context, id string) (*PublishedFunnel, error)
}

// FunnelPublisher stores a document and makes it available to FunnelSource readers.
type FunnelPublisher interface {
	Publish(ctx context.Context, title, description string, doc *domain.Document) (*PublishedFunnel, error)
}

// Generator errors shared by implementations, so hosts can map them to responses.
var (
	ErrInvalidPrompt   = errors.New("prompt must be non-empty and at most 5000 characters")
	ErrRateLimited     = errors.New("too many requests, try again in a moment")
	ErrOverloaded      = errors.New("AI service is overloaded, try again in a few minutes")
	ErrInvalidResponse = errors.New("AI generated an invalid response")
)

// Generator builds a funnel document from a prompt.
type Generator interface {
	GenerateFunnel(ctx context.Context, prompt string) (*domain.Document, error)
}

// SubmissionPublisher notifies downstream consumers (such as answer analysis) of confirmed leads.
type SubmissionPublisher interface {
	Publish(ctx context.Context, sub domain.Submission) error
}

// Analyzer classifies a free-text answer.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (domain.Analysis, error)
}
