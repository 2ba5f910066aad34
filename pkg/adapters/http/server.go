// Package http exposes funnel sessions, submissions and the persistence API over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/api"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/analysis"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:generate go tool oapi-codegen -config oapi-codegen.yaml ../../../api/openapi.yaml

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Server holds the dependencies of the HTTP handlers. Only Sessions is required;
// routes whose dependency is missing answer 501.
type Server struct {
	Sessions    *session.Service
	Submissions ports.SubmissionStore
	Leads       ports.LeadService
	Funnels     ports.FunnelSource
	Publisher   ports.FunnelPublisher
	Generator   ports.Generator
	Enricher    *analysis.Enricher
	Metrics     http.Handler
	Streams     *StreamManager
	Logger      *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// Option configures the Server.
type Option func(*Server)

func WithSubmissions(store ports.SubmissionStore) Option {
	return func(s *Server) { s.Submissions = store }
}

// WithLeads serves POST /api/leads.
func WithLeads(leads ports.LeadService) Option {
	return func(s *Server) { s.Leads = leads }
}

// WithFunnels serves GET /api/funnels/public/{funnelId}.
func WithFunnels(src ports.FunnelSource) Option {
	return func(s *Server) { s.Funnels = src }
}

// WithPublisher serves POST /api/funnels.
func WithPublisher(p ports.FunnelPublisher) Option {
	return func(s *Server) { s.Publisher = p }
}

func WithGenerator(g ports.Generator) Option {
	return func(s *Server) { s.Generator = g }
}

func WithEnricher(e *analysis.Enricher) Option {
	return func(s *Server) { s.Enricher = e }
}

// WithMetrics mounts h (usually promhttp.Handler()) on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler over the session service.
func NewHandler(sessions *session.Service, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Logger = s.Logger.With("component", "http")
	s.Streams = NewStreamManager(s.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	doc, err := api.Load(context.Background())
	if err != nil {
		s.Logger.Error("request validation disabled", "error", err)
	} else if v, err := newValidator(doc, s); err != nil {
		s.Logger.Error("request validation disabled", "error", err)
	} else {
		r.Use(v.middleware)
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(api.Spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	return HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.writeError(w, r, badRequest(err))
		},
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Funnel API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "funnel-http",
		"version": strings.TrimSpace(funnel.Version),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched when allowEmpty is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		s.writeError(w, r, badRequest(err))
		return false
	}
	return true
}
