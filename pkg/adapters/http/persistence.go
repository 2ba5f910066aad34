package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/schema"
)

// LeadRequest is the body of POST /api/leads.
type LeadRequest = ports.LeadRequest

// GenerateRequest asks the generator for a new funnel.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// PublishRequest stores a funnel document for public use.
type PublishRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Config      *domain.Document `json:"config"`
}

// PublicFunnel is the body of GET /api/funnels/public/{funnelId}.
type PublicFunnel struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Config      *domain.Document `json:"config"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Generate handles POST /generate and returns the generated document.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	if s.Generator == nil {
		s.writeError(w, r, errNotConfigured)
		return
	}
	var body GenerateJSONRequestBody
	if !s.decode(w, r, &body, false) {
		return
	}
	doc, err := s.Generator.GenerateFunnel(r.Context(), body.Prompt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// CreateLead handles POST /api/leads.
func (s *Server) CreateLead(w http.ResponseWriter, r *http.Request) {
	if s.Leads == nil {
		s.writeError(w, r, errNotConfigured)
		return
	}
	var req CreateLeadJSONRequestBody
	if !s.decode(w, r, &req, false) {
		return
	}
	if req.FunnelID == "" {
		s.writeError(w, r, badRequest(fmt.Errorf("funnelId is required")))
		return
	}
	receipt, err := s.Leads.CreateLead(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, receipt)
}

// PublishFunnel handles POST /api/funnels. The document must validate.
func (s *Server) PublishFunnel(w http.ResponseWriter, r *http.Request) {
	if s.Publisher == nil {
		s.writeError(w, r, errNotConfigured)
		return
	}
	var body PublishFunnelJSONRequestBody
	if !s.decode(w, r, &body, false) {
		return
	}
	if body.Config == nil {
		s.writeError(w, r, badRequest(fmt.Errorf("config is required")))
		return
	}
	if err := schema.Validate(body.Config); err != nil {
		s.writeError(w, r, err)
		return
	}
	published, err := s.Publisher.Publish(r.Context(), body.Title, body.Description, body.Config)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, publicFunnel(published))
}

// GetPublicFunnel handles GET /api/funnels/public/{funnelId}.
func (s *Server) GetPublicFunnel(w http.ResponseWriter, r *http.Request, funnelID string) {
	if s.Funnels == nil {
		s.writeError(w, r, errNotConfigured)
		return
	}
	f, err := s.Funnels.GetPublishedFunnel(r.Context(), funnelID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, publicFunnel(f))
}

func publicFunnel(f *ports.PublishedFunnel) PublicFunnel {
	return PublicFunnel{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Config:      f.Document,
		CreatedAt:   f.CreatedAt,
	}
}
