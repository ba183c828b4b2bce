package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/prompt"
	"github.com/alexanderramin/barnlog/internal/repository"
	"github.com/alexanderramin/barnlog/internal/service"
	"github.com/alexanderramin/barnlog/internal/signals"
)

const (
	historyWindowDays = 90
	maxHistoryRows    = 30
	minHistoryRows    = 3
)

// GeneratedSummary is a persisted summary together with what it was built from.
type GeneratedSummary struct {
	Summary   *domain.HorseSummary
	Signals   signals.Signals
	Usage     llm.Usage
	Sanitized bool
}

// Preview is the signal view of a horse without a model call.
type Preview struct {
	Signals  signals.Signals
	RowCount int
	Eligible bool
}

// SummaryService generates and reads narrative horse summaries.
type SummaryService interface {
	// Generate checks the history, staleness, and cooldown preconditions,
	// then produces and persists a new summary for horse.
	Generate(ctx context.Context, horse *domain.Horse, now time.Time) (*GeneratedSummary, error)
	// Latest returns the most recent summary, or repository.ErrNotFound.
	Latest(ctx context.Context, horseID string) (*domain.HorseSummary, error)
	Preview(ctx context.Context, horseID string, now time.Time) (*Preview, error)
}

type summaryService struct {
	sessions  repository.SessionRepo
	summaries repository.SummaryRepo
	completer llm.Completer
	version   prompt.SummaryVersion
	observer  service.UseCaseObserver
}

// NewSummaryService creates a SummaryService rendering prompts at version.
func NewSummaryService(
	sessions repository.SessionRepo,
	summaries repository.SummaryRepo,
	completer llm.Completer,
	version prompt.SummaryVersion,
	observers ...service.UseCaseObserver,
) SummaryService {
	return &summaryService{
		sessions:  sessions,
		summaries: summaries,
		completer: completer,
		version:   version,
		observer:  service.ObserverOrNoop(observers),
	}
}

func (s *summaryService) Generate(ctx context.Context, horse *domain.Horse, now time.Time) (_ *GeneratedSummary, err error) {
	fields := map[string]any{"horse_id": horse.ID, "prompt_version": s.version.String()}
	defer service.Observe(ctx, s.observer, "generate-summary", time.Now(), fields, &err)

	rows, err := s.history(ctx, horse.ID, now)
	if err != nil {
		return nil, err
	}
	if len(rows) < minHistoryRows {
		return nil, &PreconditionError{
			Code:    CodeInsufficientSessions,
			Message: fmt.Sprintf("At least %d sessions in the last %d days are needed for a summary.", minHistoryRows, historyWindowDays),
		}
	}

	prev, err := s.summaries.Latest(ctx, horse.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if prev != nil {
		if err := s.checkFreshness(ctx, horse.ID, prev, rows, now); err != nil {
			return nil, err
		}
	}

	sig := signals.Compute(rows, now)
	p, err := prompt.RenderSummary(s.version, prompt.SummaryContext{
		HorseName: horse.Name,
		Today:     now,
		Signals:   sig,
		Rides:     rows,
	})
	if err != nil {
		return nil, err
	}

	out, err := narrate(ctx, s.completer, p)
	if err != nil {
		return nil, err
	}
	fields["attempts"] = out.Attempts
	fields["sanitized"] = out.Sanitized

	sigJSON, err := json.Marshal(sig)
	if err != nil {
		return nil, fmt.Errorf("encoding signals: %w", err)
	}
	summary := &domain.HorseSummary{
		ID:               uuid.New().String(),
		HorseID:          horse.ID,
		Text:             out.Text,
		SignalsJSON:      string(sigJSON),
		PromptVersion:    s.version.String(),
		Model:            out.Model,
		Attempts:         out.Attempts,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		TotalTokens:      out.Usage.TotalTokens,
		GeneratedAt:      now.UTC(),
	}
	if err := s.summaries.Create(ctx, summary); err != nil {
		return nil, err
	}
	return &GeneratedSummary{Summary: summary, Signals: sig, Usage: out.Usage, Sanitized: out.Sanitized}, nil
}

// checkFreshness refuses regeneration when nothing new was logged since
// prev or when prev is still inside its cooldown window.
func (s *summaryService) checkFreshness(ctx context.Context, horseID string, prev *domain.HorseSummary, rows []signals.Row, now time.Time) error {
	fresh, err := s.sessions.CountCreatedSince(ctx, horseID, prev.GeneratedAt)
	if err != nil {
		return err
	}
	if fresh == 0 {
		return &PreconditionError{
			Code:    CodeNotStale,
			Message: "No new sessions have been logged since the last summary.",
		}
	}

	window := CooldownFor(now.Sub(lastActivity(rows)))
	if elapsed := now.Sub(prev.GeneratedAt); elapsed < window {
		return &PreconditionError{
			Code:       CodeCooldownActive,
			Message:    "A summary was generated recently. Please wait before generating another.",
			RetryAfter: window - elapsed,
		}
	}
	return nil
}

func (s *summaryService) Latest(ctx context.Context, horseID string) (*domain.HorseSummary, error) {
	return s.summaries.Latest(ctx, horseID)
}

func (s *summaryService) Preview(ctx context.Context, horseID string, now time.Time) (*Preview, error) {
	rows, err := s.history(ctx, horseID, now)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Signals:  signals.Compute(rows, now),
		RowCount: len(rows),
		Eligible: len(rows) >= minHistoryRows,
	}, nil
}

func (s *summaryService) history(ctx context.Context, horseID string, now time.Time) ([]signals.Row, error) {
	since := now.AddDate(0, 0, -historyWindowDays)
	sessions, err := s.sessions.ListRowsForHorse(ctx, horseID, since, maxHistoryRows)
	if err != nil {
		return nil, fmt.Errorf("loading history for horse %s: %w", horseID, err)
	}
	return signals.RowsFromSessions(sessions), nil
}

// CooldownFor returns the minimum gap between generations given how long
// ago the horse last worked. Quiet horses regenerate less often.
func CooldownFor(sinceLastActivity time.Duration) time.Duration {
	const day = 24 * time.Hour
	switch {
	case sinceLastActivity < 7*day:
		return 48 * time.Hour
	case sinceLastActivity < 14*day:
		return 72 * time.Hour
	default:
		return 168 * time.Hour
	}
}

func lastActivity(rows []signals.Row) time.Time {
	var last time.Time
	for _, r := range rows {
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return last
}
