package intelligence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/narrative"
	"github.com/alexanderramin/barnlog/internal/prompt"
	"github.com/alexanderramin/barnlog/internal/repository"
	"github.com/alexanderramin/barnlog/internal/testutil"
)

const (
	goodRecap = "Cheeto has had a steady few weeks of flatwork and pole work with Anna. " +
		"He has felt forward and relaxed, and the poles have helped his rhythm."
	adviceRecap = "Cheeto went well. Anna should try more hacking next time."
	listRecap   = "- Cheeto went well — forward and relaxed.\n- Anna should add some hacking."
)

type fakeReply struct {
	content string
	err     error
}

type fakeCompleter struct {
	mu       sync.Mutex
	replies  []fakeReply
	requests []llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		return nil, errors.New("fakeCompleter: no reply queued")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Completion{
		Content: r.content,
		Model:   "test-model",
		Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 40, TotalTokens: 140},
	}, nil
}

func summaryJSON(t *testing.T, text string) fakeReply {
	t.Helper()
	raw, err := json.Marshal(prompt.SummaryOutput{Summary: text})
	require.NoError(t, err)
	return fakeReply{content: string(raw)}
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type summaryFixture struct {
	db        *sql.DB
	stable    testutil.Stable
	sessions  *repository.SQLiteSessionRepo
	summaries *repository.SQLiteSummaryRepo
	completer *fakeCompleter
	svc       SummaryService
}

func newSummaryFixture(t *testing.T, replies ...fakeReply) *summaryFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	f := &summaryFixture{
		db:        database,
		stable:    testutil.SeedStable(t, database, "Anna", "Cheeto"),
		sessions:  repository.NewSQLiteSessionRepo(database),
		summaries: repository.NewSQLiteSummaryRepo(database),
		completer: &fakeCompleter{replies: replies},
	}
	f.svc = NewSummaryService(f.sessions, f.summaries, f.completer, prompt.SummaryV2)
	return f
}

// ride logs a session daysAgo days before testNow, recorded on the same day.
func (f *summaryFixture) ride(t *testing.T, daysAgo int, opts ...testutil.SessionOption) {
	t.Helper()
	at := testNow.AddDate(0, 0, -daysAgo)
	opts = append([]testutil.SessionOption{testutil.WithDate(at), testutil.WithCreatedAt(at)}, opts...)
	require.NoError(t, f.sessions.Create(context.Background(), testutil.NewTestSession(f.stable.Horse.ID, f.stable.Rider, opts...)))
}

func (f *summaryFixture) priorSummary(t *testing.T, at time.Time) {
	t.Helper()
	require.NoError(t, f.summaries.Create(context.Background(), &domain.HorseSummary{
		ID:          "prior",
		HorseID:     f.stable.Horse.ID,
		Text:        "Earlier recap.",
		SignalsJSON: "{}",
		GeneratedAt: at,
	}))
}

func requirePrecondition(t *testing.T, err error, code string) *PreconditionError {
	t.Helper()
	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, code, pe.Code)
	return pe
}

func TestGenerate_InsufficientSessions(t *testing.T) {
	f := newSummaryFixture(t)
	f.ride(t, 1)
	f.ride(t, 3)
	f.ride(t, 120) // outside the history window

	_, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	requirePrecondition(t, err, CodeInsufficientSessions)
	assert.Empty(t, f.completer.requests)
}

func TestGenerate_ValidFirstDraftUsesOneCall(t *testing.T) {
	f := newSummaryFixture(t, summaryJSON(t, goodRecap))
	f.ride(t, 1, testutil.WithWorkType(domain.WorkPoles), testutil.WithNotes("Lovely rhythm."))
	f.ride(t, 3)
	f.ride(t, 6)

	got, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	require.NoError(t, err)

	require.Len(t, f.completer.requests, 1)
	req := f.completer.requests[0]
	assert.Equal(t, llm.TaskSummary, req.Task)
	require.NotNil(t, req.Schema)
	assert.Equal(t, prompt.SummarySchema.Name, req.Schema.Name)
	assert.Contains(t, req.UserMessage, "Cheeto")
	assert.Empty(t, req.Corrections)

	assert.Equal(t, goodRecap, got.Summary.Text)
	assert.Equal(t, 1, got.Summary.Attempts)
	assert.False(t, got.Sanitized)
	assert.Equal(t, "v2", got.Summary.PromptVersion)
	assert.Equal(t, 140, got.Summary.TotalTokens)

	stored, err := f.svc.Latest(context.Background(), f.stable.Horse.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Summary.ID, stored.ID)
	assert.Contains(t, stored.SignalsJSON, `"workload14d"`)
}

func TestGenerate_InvalidDraftRetriesWithCorrection(t *testing.T) {
	f := newSummaryFixture(t, summaryJSON(t, adviceRecap), summaryJSON(t, goodRecap))
	for _, d := range []int{1, 2, 4} {
		f.ride(t, d)
	}

	got, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	require.NoError(t, err)

	require.Len(t, f.completer.requests, 2)
	retry := f.completer.requests[1]
	require.Len(t, retry.Corrections, 1)
	assert.Contains(t, retry.Corrections[0], narrative.IssueAdvice)
	assert.Equal(t, f.completer.requests[0].SystemPrompt, retry.SystemPrompt)

	assert.Equal(t, goodRecap, got.Summary.Text)
	assert.Equal(t, 2, got.Summary.Attempts)
	assert.Equal(t, 280, got.Usage.TotalTokens)
	assert.False(t, got.Sanitized)
}

func TestGenerate_SecondInvalidDraftIsStripped(t *testing.T) {
	f := newSummaryFixture(t, summaryJSON(t, listRecap), summaryJSON(t, listRecap), summaryJSON(t, goodRecap))
	for _, d := range []int{1, 2, 4} {
		f.ride(t, d)
	}

	got, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	require.NoError(t, err)

	assert.Len(t, f.completer.requests, 2, "never more than two completion calls")
	assert.True(t, got.Sanitized)
	assert.Equal(t, 2, got.Summary.Attempts)
	assert.NotContains(t, got.Summary.Text, "—")
	assert.NotContains(t, got.Summary.Text, "- ")
	assert.Contains(t, got.Summary.Text, "Cheeto went well, forward and relaxed.")
}

func TestGenerate_PlainTextOutputIsAccepted(t *testing.T) {
	f := newSummaryFixture(t, fakeReply{content: goodRecap})
	for _, d := range []int{1, 2, 4} {
		f.ride(t, d)
	}

	got, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	require.NoError(t, err)
	assert.Equal(t, goodRecap, got.Summary.Text)
}

func TestGenerate_UpstreamFailureOnFirstCall(t *testing.T) {
	f := newSummaryFixture(t, fakeReply{err: llm.ErrUpstream})
	for _, d := range []int{1, 2, 4} {
		f.ride(t, d)
	}

	_, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	require.ErrorIs(t, err, llm.ErrUpstream)

	_, err = f.svc.Latest(context.Background(), f.stable.Horse.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "nothing persisted")
}

func TestGenerate_UpstreamFailureOnRetryPersistsNothing(t *testing.T) {
	f := newSummaryFixture(t, summaryJSON(t, adviceRecap), fakeReply{err: llm.ErrUpstream})
	for _, d := range []int{1, 2, 4} {
		f.ride(t, d)
	}

	got, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	require.ErrorIs(t, err, llm.ErrUpstream)
	assert.Nil(t, got)
	assert.Len(t, f.completer.requests, 2)

	_, err = f.svc.Latest(context.Background(), f.stable.Horse.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "the uncorrected draft is not stored")
}

func TestGenerate_NotConfigured(t *testing.T) {
	f := newSummaryFixture(t)
	f.svc = NewSummaryService(f.sessions, f.summaries, llm.NewClient(llm.Config{}, nil), prompt.SummaryV2)
	for _, d := range []int{1, 2, 4} {
		f.ride(t, d)
	}

	_, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestGenerate_NotStale(t *testing.T) {
	f := newSummaryFixture(t)
	for _, d := range []int{1, 2, 4} {
		f.ride(t, d)
	}
	f.priorSummary(t, testNow.Add(-12*time.Hour))

	_, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	requirePrecondition(t, err, CodeNotStale)
	assert.Empty(t, f.completer.requests)
}

func TestGenerate_CooldownActive(t *testing.T) {
	f := newSummaryFixture(t)
	for _, d := range []int{2, 3, 4} {
		f.ride(t, d)
	}
	f.priorSummary(t, testNow.Add(-36*time.Hour))
	f.ride(t, 0)

	_, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	pe := requirePrecondition(t, err, CodeCooldownActive)
	assert.Equal(t, 12*time.Hour, pe.RetryAfter, "48h window for a horse worked today")
	assert.Equal(t, 12*3600, pe.RetryAfterSeconds())
	assert.Empty(t, f.completer.requests)
}

func TestGenerate_AfterCooldownRegenerates(t *testing.T) {
	f := newSummaryFixture(t, summaryJSON(t, goodRecap))
	for _, d := range []int{4, 5, 6} {
		f.ride(t, d)
	}
	f.priorSummary(t, testNow.Add(-72*time.Hour))
	f.ride(t, 1)

	got, err := f.svc.Generate(context.Background(), f.stable.Horse, testNow)
	require.NoError(t, err)
	assert.NotEqual(t, "prior", got.Summary.ID)

	latest, err := f.svc.Latest(context.Background(), f.stable.Horse.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Summary.ID, latest.ID)
}

func TestCooldownFor(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		since time.Duration
		want  time.Duration
	}{
		{0, 48 * time.Hour},
		{6*day + 23*time.Hour, 48 * time.Hour},
		{7 * day, 72 * time.Hour},
		{13 * day, 72 * time.Hour},
		{14 * day, 168 * time.Hour},
		{60 * day, 168 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CooldownFor(tt.since), "since=%s", tt.since)
	}
}

func TestPreview_DoesNotCallModel(t *testing.T) {
	f := newSummaryFixture(t)
	f.ride(t, 1, testutil.WithNotes("Slight heat in the left fore, vet check booked."))
	f.ride(t, 2)

	p, err := f.svc.Preview(context.Background(), f.stable.Horse.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, p.RowCount)
	assert.False(t, p.Eligible)
	assert.Empty(t, f.completer.requests)
}
