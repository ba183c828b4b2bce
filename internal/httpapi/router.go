// Package httpapi exposes barnlog over HTTP/JSON.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/barnlog/internal/auth"
	"github.com/alexanderramin/barnlog/internal/intelligence"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/ratelimit"
	"github.com/alexanderramin/barnlog/internal/service"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Horses    service.HorseService
	Riders    service.RiderService
	Sessions  service.SessionService
	Summaries intelligence.SummaryService
	Voice     intelligence.VoiceService

	Verifier *auth.Verifier
	Limiter  *ratelimit.Limiter
	Buckets  ratelimit.Buckets

	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type api struct {
	Deps
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	a := &api{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery(), observe(d.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	b := d.Buckets
	read := rateLimit(d.Limiter, d.Logger, b.Read)
	write := rateLimit(d.Limiter, d.Logger, b.Write)
	ai := rateLimit(d.Limiter, d.Logger, b.AIBurst, b.AIDaily)
	aiWrite := rateLimit(d.Limiter, d.Logger, b.Write, b.AIBurst, b.AIDaily)

	v1 := r.Group("/v1")
	v1.POST("/auth/verify", rateLimit(d.Limiter, d.Logger, b.Auth), a.verify)

	authed := v1.Group("", authenticate(d.Verifier, d.Limiter, b.Auth, d.Logger))
	authed.GET("/horses", read, a.listHorses)
	authed.POST("/horses", write, a.createHorse)
	authed.GET("/riders", read, a.listRiders)
	authed.GET("/horses/:id/sessions", read, a.listSessions)
	authed.POST("/sessions", write, a.logSession)
	authed.DELETE("/sessions/:id", write, a.deleteSession)
	authed.GET("/horses/:id/signals", read, a.horseSignals)
	authed.GET("/horses/:id/summary", read, a.latestSummary)
	authed.POST("/horses/:id/summary", aiWrite, a.generateSummary)
	authed.POST("/voice/parse", ai, a.parseVoice)

	return r
}

// NewServer wraps handler with the timeouts barnlog serves with. The write
// timeout covers the slowest AI route plus uploadGrace.
func NewServer(addr string, handler http.Handler, llmCfg llm.Config) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout(llmCfg),
		IdleTimeout:       120 * time.Second,
	}
}

const uploadGrace = 30 * time.Second

// writeTimeout is the longest chain of upstream calls one request can make:
// a summary with its corrective retry, or a transcription then a parse.
func writeTimeout(cfg llm.Config) time.Duration {
	summary := 2 * cfg.TaskTimeout(llm.TaskSummary)
	voice := cfg.TaskTimeout(llm.TaskTranscribe) + cfg.TaskTimeout(llm.TaskVoiceParse)
	return max(summary, voice) + uploadGrace
}
