package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/funnel/pkg/domain"
)

// Submissions implements ports.SubmissionStore on SQLite.
type Submissions struct {
	db     *sql.DB
	logger *slog.Logger
}

func (s *Submissions) Save(ctx context.Context, sub domain.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, funnel_id, origin, created_at, payload) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			funnel_id = excluded.funnel_id,
			origin = excluded.origin,
			created_at = excluded.created_at,
			payload = excluded.payload`,
		sub.ID, sub.FunnelID, string(sub.Origin), sub.Timestamp.UnixMilli(), string(data))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save submission", "id", sub.ID, "error", err)
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

func (s *Submissions) Get(ctx context.Context, id string) (domain.Submission, error) {
	return get(ctx, s.db, id)
}

// List returns submissions newest first. An empty funnelID lists all of them.
func (s *Submissions) List(ctx context.Context, funnelID string) ([]domain.Submission, error) {
	query := `SELECT payload FROM submissions ORDER BY created_at DESC`
	args := []any{}
	if funnelID != "" {
		query = `SELECT payload FROM submissions WHERE funnel_id = ? ORDER BY created_at DESC`
		args = append(args, funnelID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	out := []domain.Submission{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sub domain.Submission
		if err := json.Unmarshal([]byte(payload), &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Submissions) Annotate(ctx context.Context, id, questionID string, analysis domain.Analysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sub, err := get(ctx, tx, id)
	if err != nil {
		return err
	}
	for i := range sub.Answers {
		if sub.Answers[i].QuestionID == questionID {
			a := analysis
			sub.Answers[i].Analysis = &a
		}
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE submissions SET payload = ? WHERE id = ?`, string(data), id); err != nil {
		return fmt.Errorf("failed to annotate submission: %w", err)
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q queryer, id string) (domain.Submission, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload FROM submissions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, fmt.Errorf("submission %q: %w", id, domain.ErrSubmissionNotFound)
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("failed to load submission: %w", err)
	}

	var sub domain.Submission
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("failed to unmarshal submission: %w", err)
	}
	return sub, nil
}
