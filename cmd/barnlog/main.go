package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/barnlog/internal/auth"
	"github.com/alexanderramin/barnlog/internal/cli"
	"github.com/alexanderramin/barnlog/internal/config"
	"github.com/alexanderramin/barnlog/internal/db"
	"github.com/alexanderramin/barnlog/internal/httpapi"
	"github.com/alexanderramin/barnlog/internal/intelligence"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/ratelimit"
	"github.com/alexanderramin/barnlog/internal/repository"
	"github.com/alexanderramin/barnlog/internal/service"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Level())

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	app, deps, err := wire(cfg, database, logger)
	if err != nil {
		return err
	}
	app.Serve = func(ctx context.Context) error {
		return serve(ctx, cfg, deps, logger)
	}

	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}

// newLogger writes human-readable lines to a terminal and JSON otherwise.
func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func wire(cfg *config.Config, database *sql.DB, logger *slog.Logger) (*cli.App, httpapi.Deps, error) {
	barnRepo := repository.NewSQLiteBarnRepo(database)
	riderRepo := repository.NewSQLiteRiderRepo(database)
	horseRepo := repository.NewSQLiteHorseRepo(database)
	sessionRepo := repository.NewSQLiteSessionRepo(database)
	summaryRepo := repository.NewSQLiteSummaryRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	observer := service.NewLogUseCaseObserver(logger)

	llmCfg := cfg.LLMConfig()
	observers := llm.Observers{llm.MetricsObserver{}}
	if llmCfg.LogCalls {
		observers = append(observers, llm.NewLogObserver(logger))
	}
	client := llm.NewClient(llmCfg, observers)
	if !llmCfg.Configured() {
		logger.Debug("OPENAI_API_KEY is not set, AI features are disabled")
	}

	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		v, err := auth.NewVerifier(cfg.JWTSecret)
		if err != nil {
			return nil, httpapi.Deps{}, fmt.Errorf("configuring credentials: %w", err)
		}
		verifier = v
	}

	horses := service.NewHorseService(barnRepo, horseRepo)
	riders := service.NewRiderService(barnRepo, riderRepo)
	sessions := service.NewSessionService(horseRepo, sessionRepo, uow, observer)
	summaries := intelligence.NewSummaryService(sessionRepo, summaryRepo, client, cfg.SummaryVersion(), observer)
	voice := intelligence.NewVoiceService(client, client, cfg.VoiceVersion(), observer)

	app := &cli.App{
		Barns:     service.NewBarnService(barnRepo),
		Riders:    riders,
		Horses:    horses,
		Sessions:  sessions,
		Summaries: summaries,
		Verifier:  verifier,
	}
	deps := httpapi.Deps{
		Horses:    horses,
		Riders:    riders,
		Sessions:  sessions,
		Summaries: summaries,
		Voice:     voice,
		Verifier:  verifier,
		Limiter:   ratelimit.New(),
		Buckets:   cfg.Buckets(),
		Logger:    logger,
	}
	return app, deps, nil
}

// serve runs the HTTP server and the rate-limit janitor until ctx is
// cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg *config.Config, deps httpapi.Deps, logger *slog.Logger) error {
	if deps.Verifier == nil {
		return errors.New("BARNLOG_JWT_SECRET must be set to serve the API")
	}

	janitor, err := ratelimit.NewJanitor(deps.Limiter, cfg.Rate.SweepSpec, logger)
	if err != nil {
		return err
	}
	srv := httpapi.NewServer(cfg.Addr, httpapi.NewRouter(deps), cfg.LLMConfig())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr, "llm_timeout", cfg.LLMTimeout())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return janitor.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
