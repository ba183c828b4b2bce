package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor sweeps expired counters on a cron schedule.
type Janitor struct {
	cron    *cron.Cron
	limiter *Limiter
	logger  *slog.Logger
}

// NewJanitor schedules l.Sweep with spec, e.g. "@every 5m".
func NewJanitor(l *Limiter, spec string, logger *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		limiter: l,
		logger:  logger,
	}
	if _, err := j.cron.AddFunc(spec, j.sweep); err != nil {
		return nil, fmt.Errorf("scheduling rate limit sweep %q: %w", spec, err)
	}
	return j, nil
}

func (j *Janitor) sweep() {
	removed := j.limiter.Sweep()
	j.logger.Debug("ratelimit_sweep", "removed", removed, "live", j.limiter.Len())
}

// Run starts the schedule and blocks until ctx is done, then waits for any
// running sweep to finish.
func (j *Janitor) Run(ctx context.Context) error {
	j.cron.Start()
	j.logger.Info("ratelimit janitor started")
	<-ctx.Done()
	<-j.cron.Stop().Done()
	j.logger.Info("ratelimit janitor stopped")
	return nil
}
