package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/barnlog/internal/auth"
	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/intelligence"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/prompt"
	"github.com/alexanderramin/barnlog/internal/ratelimit"
	"github.com/alexanderramin/barnlog/internal/repository"
	"github.com/alexanderramin/barnlog/internal/service"
	"github.com/alexanderramin/barnlog/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const cleanRecap = "Cheeto has had a steady fortnight of flatwork with Anna and has felt forward and relaxed throughout."

type stubCompleter struct {
	content string
	err     error
	calls   int
}

func (s *stubCompleter) Complete(context.Context, llm.CompletionRequest) (*llm.Completion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Content: s.content, Model: "test-model", Usage: llm.Usage{TotalTokens: 10}}, nil
}

type stubTranscriber struct {
	text string
}

func (s stubTranscriber) Transcribe(context.Context, llm.Audio) (string, error) {
	return s.text, nil
}

var apiNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	router    *gin.Engine
	stable    testutil.Stable
	other     testutil.Stable
	sessions  *repository.SQLiteSessionRepo
	completer *stubCompleter
	token     string
}

func newTestAPI(t *testing.T, tweak func(*ratelimit.Buckets)) *testAPI {
	t.Helper()
	database := testutil.NewTestDB(t)
	barns := repository.NewSQLiteBarnRepo(database)
	horses := repository.NewSQLiteHorseRepo(database)
	sessions := repository.NewSQLiteSessionRepo(database)

	verifier, err := auth.NewVerifier("test-secret")
	require.NoError(t, err)

	buckets := ratelimit.DefaultBuckets()
	if tweak != nil {
		tweak(&buckets)
	}

	ta := &testAPI{
		stable:    testutil.SeedStable(t, database, "Anna", "Cheeto"),
		other:     testutil.SeedStable(t, database, "Ben", "Biscuit"),
		sessions:  sessions,
		completer: &stubCompleter{content: `{"summary":"` + cleanRecap + `"}`},
	}
	ta.router = NewRouter(Deps{
		Horses:    service.NewHorseService(barns, horses),
		Riders:    service.NewRiderService(barns, repository.NewSQLiteRiderRepo(database)),
		Sessions:  service.NewSessionService(horses, sessions, testutil.NewTestUoW(database)),
		Summaries: intelligence.NewSummaryService(sessions, repository.NewSQLiteSummaryRepo(database), ta.completer, prompt.SummaryV2),
		Voice: intelligence.NewVoiceService(
			stubTranscriber{text: "Rode Cheeto for forty minutes of flatwork."},
			&stubCompleter{content: `{"horseName":"Cheeto","riderName":"","workType":"flat","durationMinutes":40,"date":"","notes":""}`},
			prompt.VoiceV2,
		),
		Verifier: verifier,
		Limiter:  ratelimit.New(),
		Buckets:  buckets,
		Now:      func() time.Time { return apiNow },
	})

	ta.token, err = verifier.Sign(auth.Identity{RiderID: ta.stable.Rider.ID, BarnID: ta.stable.Barn.ID}, time.Hour)
	require.NoError(t, err)
	return ta
}

func (ta *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ta.token)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)
	return rec
}

func (ta *testAPI) ride(t *testing.T, daysAgo int) {
	t.Helper()
	at := apiNow.AddDate(0, 0, -daysAgo)
	s := testutil.NewTestSession(ta.stable.Horse.ID, ta.stable.Rider, testutil.WithDate(at), testutil.WithCreatedAt(at))
	require.NoError(t, ta.sessions.Create(context.Background(), s))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	ta := newTestAPI(t, nil)

	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ta.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "barnlog_http_requests_total")
}

func TestAuth_Rejections(t *testing.T) {
	ta := newTestAPI(t, nil)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", CodeUnauthorized},
		{"wrong scheme", "Basic abc", CodeInvalidCredential},
		{"garbage token", "Bearer not-a-jwt", CodeInvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/horses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			ta.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, decode(t, rec)["error"])
		})
	}
}

func TestVerify_RateLimitedByIP(t *testing.T) {
	ta := newTestAPI(t, func(b *ratelimit.Buckets) { b.Auth.Limit = 2 })

	for i := 0; i < 2; i++ {
		rec := ta.do(t, http.MethodPost, "/v1/auth/verify", verifyRequest{Token: ta.token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ta.stable.Rider.ID, decode(t, rec)["riderId"])
	}

	rec := ta.do(t, http.MethodPost, "/v1/auth/verify", verifyRequest{Token: ta.token})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	body := decode(t, rec)
	assert.Equal(t, CodeRateLimited, body["error"])
	assert.Equal(t, ratelimit.NameAuth, body["bucket"])
	assert.Equal(t, float64(0), body["remaining"])
}

func TestAuth_RejectedCredentialsAreRateLimitedByIP(t *testing.T) {
	ta := newTestAPI(t, func(b *ratelimit.Buckets) {
		b.Auth.Limit = 2
		b.Read.Limit = 100
	})

	statuses := map[int]int{}
	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/horses", nil)
		req.Header.Set("Authorization", "Bearer not-a-real-token")
		last = httptest.NewRecorder()
		ta.router.ServeHTTP(last, req)
		statuses[last.Code]++
	}

	assert.Equal(t, map[int]int{http.StatusUnauthorized: 2, http.StatusTooManyRequests: 3}, statuses)
	body := decode(t, last)
	assert.Equal(t, CodeRateLimited, body["error"])
	assert.Equal(t, ratelimit.NameAuth, body["bucket"])
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	rec := ta.do(t, http.MethodGet, "/v1/horses", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "a valid credential is keyed by rider, not by IP")
}

func TestHorsesAndSessions(t *testing.T) {
	ta := newTestAPI(t, nil)

	rec := ta.do(t, http.MethodPost, "/v1/horses", createHorseRequest{Name: "Pepper"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ta.do(t, http.MethodGet, "/v1/horses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["horses"], 2)

	rec = ta.do(t, http.MethodPost, "/v1/sessions", logSessionRequest{
		HorseID:         ta.stable.Horse.ID,
		Date:            "2025-06-14",
		WorkType:        "Poles",
		DurationMinutes: 35,
		Notes:           "Good rhythm.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "Anna", created["riderName"])
	assert.Equal(t, "pole work", created["workTypeLabel"])

	rec = ta.do(t, http.MethodGet, "/v1/horses/"+ta.stable.Horse.ID+"/sessions?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["sessions"], 1)

	rec = ta.do(t, http.MethodDelete, "/v1/sessions/"+created["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLogSession_BadInput(t *testing.T) {
	ta := newTestAPI(t, nil)

	tests := []struct {
		name string
		req  logSessionRequest
	}{
		{"unknown work type", logSessionRequest{HorseID: ta.stable.Horse.ID, Date: "2025-06-14", WorkType: "dressage", DurationMinutes: 30}},
		{"bad date", logSessionRequest{HorseID: ta.stable.Horse.ID, Date: "14/06/2025", WorkType: "flat", DurationMinutes: 30}},
		{"too long", logSessionRequest{HorseID: ta.stable.Horse.ID, Date: "2025-06-14", WorkType: "flat", DurationMinutes: 601}},
		{"missing horse", logSessionRequest{Date: "2025-06-14", WorkType: "flat", DurationMinutes: 30}},
		{"rider from another barn", logSessionRequest{HorseID: ta.stable.Horse.ID, RiderID: ta.other.Rider.ID, Date: "2025-06-14", WorkType: "flat", DurationMinutes: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ta.do(t, http.MethodPost, "/v1/sessions", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, CodeInvalidRequest, decode(t, rec)["error"])
		})
	}
}

func TestTenancy_OtherBarnIsNotFound(t *testing.T) {
	ta := newTestAPI(t, nil)
	otherHorse := ta.other.Horse.ID

	for _, path := range []string{
		"/v1/horses/" + otherHorse + "/sessions",
		"/v1/horses/" + otherHorse + "/signals",
		"/v1/horses/" + otherHorse + "/summary",
	} {
		rec := ta.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := ta.do(t, http.MethodPost, "/v1/sessions", logSessionRequest{
		HorseID: otherHorse, Date: "2025-06-14", WorkType: "flat", DurationMinutes: 30,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignals(t *testing.T) {
	ta := newTestAPI(t, nil)
	ta.ride(t, 1)
	ta.ride(t, 2)

	rec := ta.do(t, http.MethodGet, "/v1/horses/"+ta.stable.Horse.ID+"/signals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["sessions"])
	assert.Equal(t, false, body["eligibleForSummary"])
	assert.Equal(t, "light", body["signals"].(map[string]any)["workload14d"])
}

func TestSummary_Lifecycle(t *testing.T) {
	ta := newTestAPI(t, nil)
	path := "/v1/horses/" + ta.stable.Horse.ID + "/summary"

	rec := ta.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["summary"])

	rec = ta.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, intelligence.CodeInsufficientSessions, decode(t, rec)["error"])

	for _, d := range []int{1, 2, 4} {
		ta.ride(t, d)
	}
	rec = ta.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, cleanRecap, decode(t, rec)["summary"].(map[string]any)["text"])

	rec = ta.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, intelligence.CodeNotStale, decode(t, rec)["error"])

	rec = ta.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cleanRecap, decode(t, rec)["summary"].(map[string]any)["text"])
}

func TestSummary_UpstreamFailureIsGeneric(t *testing.T) {
	ta := newTestAPI(t, nil)
	ta.completer.err = errors.Join(llm.ErrUpstream, errors.New("status 500: secret upstream detail"))
	for _, d := range []int{1, 2, 4} {
		ta.ride(t, d)
	}

	rec := ta.do(t, http.MethodPost, "/v1/horses/"+ta.stable.Horse.ID+"/summary", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, GenericFailureMessage, body["message"])
	assert.NotContains(t, rec.Body.String(), "secret upstream detail")
}

func TestSummary_AIBurstLimit(t *testing.T) {
	ta := newTestAPI(t, func(b *ratelimit.Buckets) { b.AIBurst.Limit = 1 })
	path := "/v1/horses/" + ta.stable.Horse.ID + "/summary"

	rec := ta.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ratelimit.NameAIBurst, decode(t, rec)["bucket"])
	assert.Zero(t, ta.completer.calls)
}

func voiceForm(t *testing.T, audio []byte, contextJSON string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if audio != nil {
		part, err := w.CreateFormFile("audio", "note.webm")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	if contextJSON != "" {
		require.NoError(t, w.WriteField("context", contextJSON))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (ta *testAPI) postVoice(t *testing.T, audio []byte, contextJSON string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := voiceForm(t, audio, contextJSON)
	req := httptest.NewRequest(http.MethodPost, "/v1/voice/parse", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+ta.token)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)
	return rec
}

func TestVoiceParse(t *testing.T) {
	ta := newTestAPI(t, nil)
	ctxJSON := `{"horses":[{"id":"` + ta.stable.Horse.ID + `","name":"Cheeto"}],"riders":[],"speakerName":"Anna","today":"2025-06-15"}`

	rec := ta.postVoice(t, nil, ctxJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingAudio, decode(t, rec)["error"])

	rec = ta.postVoice(t, []byte("audio"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingContext, decode(t, rec)["error"])

	rec = ta.postVoice(t, []byte("audio"), `{"horses":[{"id":"","name":"Cheeto"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, decode(t, rec)["error"])

	rec = ta.postVoice(t, []byte("audio"), ctxJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, ta.stable.Horse.ID, body["horseId"])
	assert.Equal(t, ta.stable.Rider.ID, body["riderId"])
	assert.Equal(t, string(domain.WorkFlat), body["workType"])
	assert.Equal(t, float64(40), body["durationMinutes"])
}

func TestVoiceParse_OversizedUploadIsRejected(t *testing.T) {
	ta := newTestAPI(t, nil)
	body, contentType := voiceForm(t, make([]byte, maxVoiceBodyBytes), `{"speakerName":"Anna"}`)
	raw := body.Bytes()

	tests := []struct {
		name          string
		contentLength int64
	}{
		{"declared length", int64(len(raw))},
		{"unknown length", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/voice/parse", bytes.NewReader(raw))
			req.ContentLength = tt.contentLength
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+ta.token)
			rec := httptest.NewRecorder()
			ta.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, CodeInvalidRequest, decode(t, rec)["error"])
		})
	}
}

func TestNewServer_WriteTimeoutCoversSlowestRoute(t *testing.T) {
	cfg := llm.DefaultConfig()
	srv := NewServer(":0", http.NotFoundHandler(), cfg)
	// transcribe 60s + parse 30s beats summary 2 x 30s.
	assert.Equal(t, 90*time.Second+uploadGrace, srv.WriteTimeout)

	cfg.Tasks[llm.TaskSummary] = llm.TaskConfig{TimeoutMs: 120_000}
	assert.Equal(t, 240*time.Second+uploadGrace, NewServer(":0", http.NotFoundHandler(), cfg).WriteTimeout)
}
