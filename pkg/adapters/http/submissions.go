package http

import (
	"net/http"

	"github.com/aretw0/funnel/pkg/domain"
)

// AnalysisRequest attaches an analysis to one answer of a submission.
type AnalysisRequest struct {
	QuestionID string          `json:"questionId"`
	Analysis   domain.Analysis `json:"analysis"`
}

// ListSubmissions handles GET /submissions, optionally filtered by ?funnelId=.
func (s *Server) ListSubmissions(w http.ResponseWriter, r *http.Request, params ListSubmissionsParams) {
	if s.Submissions == nil {
		s.writeError(w, r, errNotConfigured)
		return
	}
	var funnelID string
	if params.FunnelId != nil {
		funnelID = *params.FunnelId
	}
	subs, err := s.Submissions.List(r.Context(), funnelID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	s.writeJSON(w, http.StatusOK, subs)
}

// GetSubmission handles GET /submissions/{submissionId}.
func (s *Server) GetSubmission(w http.ResponseWriter, r *http.Request, id string) {
	if s.Submissions == nil {
		s.writeError(w, r, errNotConfigured)
		return
	}
	sub, err := s.Submissions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

// AnalyzeSubmission handles POST /submissions/{submissionId}/analysis. A body attaches the
// given analysis; an empty body runs the configured enricher over the submission.
func (s *Server) AnalyzeSubmission(w http.ResponseWriter, r *http.Request, id string) {
	if s.Submissions == nil {
		s.writeError(w, r, errNotConfigured)
		return
	}

	var body AnalyzeSubmissionJSONRequestBody
	if !s.decode(w, r, &body, true) {
		return
	}

	if body.QuestionID != "" {
		if err := s.Submissions.Annotate(r.Context(), id, body.QuestionID, body.Analysis); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		if s.Enricher == nil {
			s.writeError(w, r, errNotConfigured)
			return
		}
		n, err := s.Enricher.EnrichByID(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.Logger.DebugContext(r.Context(), "enricher finished", "submission_id", id, "annotated", n)
	}

	sub, err := s.Submissions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}
