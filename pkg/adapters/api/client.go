// Package api is a REST client for the funnel persistence service.
// It implements ports.LeadService and ports.FunnelSource.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 4 << 10

// Client talks to the persistence service under a base URL such as https://host/api.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api", "base_url", c.baseURL)
	return c
}

type leadResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateLead posts a lead. Any failure, including non-2xx statuses, is a *domain.TransportError.
func (c *Client) CreateLead(ctx context.Context, req ports.LeadRequest) (ports.LeadReceipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ports.LeadReceipt{}, fmt.Errorf("failed to encode lead: %w", err)
	}

	var out leadResponse
	if err := c.do(ctx, http.MethodPost, "/leads", body, &out); err != nil {
		return ports.LeadReceipt{}, transportError(req.FunnelID, err)
	}
	c.logger.DebugContext(ctx, "lead created", "lead_id", out.ID, "funnel_id", req.FunnelID)
	return ports.LeadReceipt(out), nil
}

type funnelResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// GetPublishedFunnel fetches a published funnel. A 404 maps to domain.ErrFunnelNotFound.
func (c *Client) GetPublishedFunnel(ctx context.Context, id string) (*ports.PublishedFunnel, error) {
	var out funnelResponse
	if err := c.do(ctx, http.MethodGet, "/funnels/public/"+url.PathEscape(id), nil, &out); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, fmt.Errorf("funnel %q: %w", id, domain.ErrFunnelNotFound)
		}
		return nil, transportError(id, err)
	}

	doc, err := decodeConfig(out.Config)
	if err != nil {
		return nil, fmt.Errorf("funnel %q: %w", id, err)
	}
	return &ports.PublishedFunnel{
		ID:          out.ID,
		Title:       out.Title,
		Description: out.Description,
		Document:    doc,
		CreatedAt:   out.CreatedAt,
	}, nil
}

// decodeConfig accepts the config either as an object or as a JSON-encoded string.
func decodeConfig(raw json.RawMessage) (*domain.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, domain.ErrEmptyDocument
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid funnel config: %w", err)
		}
		raw = json.RawMessage(s)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid funnel config: %w", err)
	}
	return &doc, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status %d", e.code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response body: %w", err)
	}
	return nil
}

func transportError(funnelID string, err error) *domain.TransportError {
	te := &domain.TransportError{FunnelID: funnelID, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		te.StatusCode = se.code
	}
	return te
}
