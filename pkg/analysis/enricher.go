// Package analysis attaches sentiment analyses to the free-text answers of submissions.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Enricher analyzes unanalyzed text answers and stores the results.
type Enricher struct {
	analyzer ports.Analyzer
	store    ports.SubmissionStore
	logger   *slog.Logger
}

// Option configures the Enricher.
type Option func(*Enricher)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnricher creates an Enricher.
func NewEnricher(analyzer ports.Analyzer, store ports.SubmissionStore, opts ...Option) *Enricher {
	e := &Enricher{analyzer: analyzer, store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "analysis")
	return e
}

// Enrich analyzes every text answer of sub that has no analysis yet.
// Recordings are skipped. It returns how many answers were annotated; failures of
// individual answers are joined into the returned error.
func (e *Enricher) Enrich(ctx context.Context, sub domain.Submission) (int, error) {
	var (
		done int
		errs []error
	)
	for _, a := range sub.Answers {
		if a.Analysis != nil || a.Answer.IsRecording() || strings.TrimSpace(a.Answer.Text) == "" {
			continue
		}

		result, err := e.analyzer.AnalyzeText(ctx, a.Answer.Text)
		if err != nil {
			errs = append(errs, fmt.Errorf("question %q: %w", a.QuestionID, err))
			continue
		}
		if err := e.store.Annotate(ctx, sub.ID, a.QuestionID, result); err != nil {
			errs = append(errs, fmt.Errorf("question %q: %w", a.QuestionID, err))
			continue
		}
		done++
	}

	e.logger.InfoContext(ctx, "submission analyzed", "id", sub.ID, "annotated", done, "failed", len(errs))
	return done, errors.Join(errs...)
}

// EnrichByID loads a submission from the store and enriches it.
func (e *Enricher) EnrichByID(ctx context.Context, id string) (int, error) {
	sub, err := e.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return e.Enrich(ctx, sub)
}

// Handle adapts Enrich to a message consumer callback. The consumer may deliver a
// submission before it reaches this store, so it is saved first when missing.
func (e *Enricher) Handle(ctx context.Context, sub domain.Submission) error {
	if _, err := e.store.Get(ctx, sub.ID); errors.Is(err, domain.ErrSubmissionNotFound) {
		if err := e.store.Save(ctx, sub); err != nil {
			return err
		}
	}
	_, err := e.Enrich(ctx, sub)
	return err
}
