// Package postgres is the server-side persistence for published funnels and leads.
// It implements ports.FunnelSource and ports.LeadService over database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/google/uuid"

	_ "github.com/lib/pq"
)

// Store persists funnels and leads in PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to databaseURL, checks the connection and runs migrations.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "postgres")

	if err := migrate(ctx, s.logger, db, migrations()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Publish stores a document as a published funnel and returns it with its new id.
func (s *Store) Publish(ctx context.Context, title, description string, doc *domain.Document) (*ports.PublishedFunnel, error) {
	config, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize funnel config: %w", err)
	}

	f := &ports.PublishedFunnel{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Document:    doc,
		CreatedAt:   s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO funnels (id, title, description, config, is_published, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)`,
		f.ID, f.Title, f.Description, string(config), f.CreatedAt)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish funnel", "error", err)
		return nil, fmt.Errorf("failed to publish funnel: %w", err)
	}
	s.logger.InfoContext(ctx, "funnel published", "funnel_id", f.ID, "steps", doc.Len())
	return f, nil
}

// GetPublishedFunnel loads a published funnel by id.
func (s *Store) GetPublishedFunnel(ctx context.Context, id string) (*ports.PublishedFunnel, error) {
	var (
		f      ports.PublishedFunnel
		config []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, config, created_at
		FROM funnels WHERE id = $1 AND is_published`, id).
		Scan(&f.ID, &f.Title, &f.Description, &config, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("funnel %q: %w", id, domain.ErrFunnelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load funnel: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(config, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode funnel %q: %w", id, err)
	}
	f.Document = &doc
	return &f, nil
}

// CreateLead stores a lead for a published funnel.
func (s *Store) CreateLead(ctx context.Context, req ports.LeadRequest) (ports.LeadReceipt, error) {
	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return ports.LeadReceipt{}, fmt.Errorf("failed to serialize answers: %w", err)
	}

	receipt := ports.LeadReceipt{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (id, funnel_id, name, email, phone, subscribed, answers, created_at)
		SELECT $1::text, id, $3::text, $4::text, $5::text, $6::boolean, $7::jsonb, $8::timestamptz
		FROM funnels WHERE id = $2 AND is_published`,
		receipt.ID, req.FunnelID, req.Name, req.Email, req.Phone, req.Subscribed, string(answers), receipt.CreatedAt)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create lead", "funnel_id", req.FunnelID, "error", err)
		return ports.LeadReceipt{}, fmt.Errorf("failed to create lead: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ports.LeadReceipt{}, fmt.Errorf("funnel %q: %w", req.FunnelID, domain.ErrFunnelNotFound)
	}

	s.logger.DebugContext(ctx, "lead created", "lead_id", receipt.ID, "funnel_id", req.FunnelID)
	return receipt, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
