package http

import (
	"fmt"
	"net/http"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/session"
)

// IntentRequest is the body of POST /sessions/{sessionId}/intents.
type IntentRequest = controller.Intent

// CreateSessionRequest starts a session from an inline document or a published funnel.
// RemoteFunnelID binds an inline document to a published funnel for lead submission.
type CreateSessionRequest struct {
	Document       *domain.Document `json:"document,omitempty"`
	FunnelID       string           `json:"funnelId,omitempty"`
	RemoteFunnelID string           `json:"remoteFunnelId,omitempty"`
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionJSONRequestBody
	if !s.decode(w, r, &body, false) {
		return
	}

	var (
		res *session.Result
		err error
	)
	switch {
	case body.Document != nil:
		res, err = s.Sessions.Create(r.Context(), body.Document, body.RemoteFunnelID)
	case body.FunnelID != "":
		res, err = s.Sessions.CreateFromFunnel(r.Context(), body.FunnelID)
	default:
		err = badRequest(fmt.Errorf("document or funnelId is required"))
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

// GetSession handles GET /sessions/{sessionId}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	view, err := s.Sessions.View(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// DeleteSession handles DELETE /sessions/{sessionId}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.Sessions.Delete(r.Context(), sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyIntent handles POST /sessions/{sessionId}/intents and broadcasts the resulting diff.
func (s *Server) ApplyIntent(w http.ResponseWriter, r *http.Request, sessionID string) {
	var in ApplyIntentJSONRequestBody
	if !s.decode(w, r, &in, false) {
		return
	}
	if err := runner.SanitizeIntent(&in); err != nil {
		s.Logger.Warn("input rejected", "session_id", sessionID, "error", err)
		s.writeError(w, r, err)
		return
	}

	res, err := s.Sessions.Apply(r.Context(), sessionID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.broadcastDiff(sessionID, res.Diff)
	s.writeJSON(w, http.StatusOK, res)
}
