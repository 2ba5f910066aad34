package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the session service and exposes it as an MCP Server.
type Server struct {
	sessions    *session.Service
	submissions ports.SubmissionStore
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSubmissions exposes the local results list as a tool and a resource.
func WithSubmissions(store ports.SubmissionStore) Option {
	return func(s *Server) {
		s.submissions = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Service, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("funnel-mcp", strings.TrimSpace(funnel.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "mcp")
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: create_session
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a funnel run from an inline document or a published funnel id. Returns the first view."),
		mcp.WithString("document", mcp.Description("Funnel document as JSON or YAML (optional if funnel_id is set)")),
		mcp.WithString("funnel_id", mcp.Description("Published funnel id to load")),
		mcp.WithString("remote_funnel_id", mcp.Description("Published funnel the inline document submits leads to")),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	// TOOL: apply_intent
	s.mcpServer.AddTool(mcp.NewTool("apply_intent",
		mcp.WithDescription("Apply a respondent intent (start, continue, answer, back, restart, retry, edit, resume, submit, jump) to a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by create_session")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Intent type"),
			mcp.Enum("start", "continue", "answer", "back", "restart", "retry", "edit", "resume", "submit", "jump")),
		mcp.WithString("question_id", mcp.Description("Question to answer (defaults to the current step)")),
		mcp.WithString("option_id", mcp.Description("Chosen option for buttons questions")),
		mcp.WithString("step_id", mcp.Description("Target step, for jump")),
		mcp.WithString("answer", mcp.Description("Typed answer text")),
		mcp.WithString("recording_type", mcp.Description("voice or video, for recorded answers"), mcp.Enum("voice", "video")),
		mcp.WithString("recording_url", mcp.Description("URL of the uploaded recording")),
		mcp.WithString("name", mcp.Description("Contact name, for submit")),
		mcp.WithString("email", mcp.Description("Contact email, for submit")),
		mcp.WithString("phone", mcp.Description("Contact phone, for submit")),
		mcp.WithBoolean("subscribed", mcp.Description("Newsletter consent, for submit")),
	), mcp.NewStructuredToolHandler(s.handleApplyIntent))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Render the current view of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	// TOOL: validate_document
	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Lint a funnel document and list every problem found."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Funnel document as JSON or YAML")),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	if s.submissions != nil {
		// TOOL: list_submissions
		s.mcpServer.AddTool(mcp.NewTool("list_submissions",
			mcp.WithDescription("List finalized submissions, newest first."),
			mcp.WithString("funnel_id", mcp.Description("Only submissions of this funnel")),
		), mcp.NewStructuredToolHandler(s.handleListSubmissions))
	}
}

func (s *Server) registerResources() {
	// EXPOSE: funnel://sessions/{id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("funnel://sessions/{id}", "Session View",
		mcp.WithTemplateDescription("Current view of a funnel session"),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, "funnel://sessions/")
		view, err := s.sessions.View(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		return jsonResource(request.Params.URI, view)
	})

	if s.submissions == nil {
		return
	}
	// EXPOSE: funnel://submissions
	s.mcpServer.AddResource(mcp.NewResource("funnel://submissions", "Submissions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		subs, err := s.submissions.List(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}
		return jsonResource("funnel://submissions", subs)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

var errMissingDocument = errors.New("document or funnel_id is required")
