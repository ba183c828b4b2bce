package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/barnlog/internal/db"
	"github.com/alexanderramin/barnlog/internal/domain"
)

// SQLiteSummaryRepo implements SummaryRepo. Every generation inserts a new
// row; readers only ever look at the latest one.
type SQLiteSummaryRepo struct {
	db db.DBTX
}

func NewSQLiteSummaryRepo(conn db.DBTX) *SQLiteSummaryRepo {
	return &SQLiteSummaryRepo{db: conn}
}

func (r *SQLiteSummaryRepo) Create(ctx context.Context, s *domain.HorseSummary) error {
	query := `INSERT INTO horse_summaries (id, horse_id, text, signals_json, prompt_version, model,
		attempts, prompt_tokens, completion_tokens, total_tokens, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.HorseID, s.Text, s.SignalsJSON, s.PromptVersion, s.Model,
		s.Attempts, s.PromptTokens, s.CompletionTokens, s.TotalTokens,
		db.FormatTime(s.GeneratedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting horse summary: %w", err)
	}
	return nil
}

func (r *SQLiteSummaryRepo) Latest(ctx context.Context, horseID string) (*domain.HorseSummary, error) {
	query := `SELECT id, horse_id, text, signals_json, prompt_version, model,
		attempts, prompt_tokens, completion_tokens, total_tokens, generated_at
		FROM horse_summaries
		WHERE horse_id = ?
		ORDER BY generated_at DESC
		LIMIT 1`
	var s domain.HorseSummary
	var generatedAt string
	err := r.db.QueryRowContext(ctx, query, horseID).Scan(
		&s.ID, &s.HorseID, &s.Text, &s.SignalsJSON, &s.PromptVersion, &s.Model,
		&s.Attempts, &s.PromptTokens, &s.CompletionTokens, &s.TotalTokens, &generatedAt,
	)
	if err != nil {
		return nil, notFound(err, "horse summary")
	}
	if err := parseTime(generatedAt, &s.GeneratedAt, "generated_at"); err != nil {
		return nil, err
	}
	return &s, nil
}
