package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/schema"
)

var errNotConfigured = errors.New("not configured on this server")

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type requestError struct{ err error }

func (e *requestError) Error() string { return "invalid request: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	var reqErr *requestError
	var validation *schema.ValidationError
	var aggregate *schema.AggregateError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8),
		errors.Is(err, ports.ErrInvalidPrompt):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrFunnelNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrInvalidIntent),
		errors.Is(err, controller.ErrEditing),
		errors.Is(err, controller.ErrNotLeadCapture),
		errors.Is(err, domain.ErrRunCompleted):
		return http.StatusConflict
	case errors.Is(err, controller.ErrUnknownQuestion),
		errors.Is(err, controller.ErrUnknownOption),
		errors.Is(err, controller.ErrInvalidContact),
		errors.As(err, &validation),
		errors.As(err, &aggregate),
		errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ports.ErrOverloaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, ports.ErrInvalidResponse),
		errors.Is(err, domain.ErrSubmissionTransport):
		return http.StatusBadGateway
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.Logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: http.StatusText(status), Message: err.Error()})
}
