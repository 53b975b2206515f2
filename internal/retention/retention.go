// Package retention periodically prunes sensor states that have aged out
// of the history lookback.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LudiSistemas/HA/internal/metrics"
)

// Pruner deletes expired states and reports how many rows went.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

type Scheduler struct {
	schedule string
	pruner   Pruner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cron     *cron.Cron
}

// New validates schedule (standard five-field cron or a descriptor such as
// "@hourly") and builds a scheduler that never overlaps runs.
func New(schedule string, pruner Pruner, logger *slog.Logger, m *metrics.Metrics) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		schedule: schedule,
		pruner:   pruner,
		logger:   logger,
		metrics:  m,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}, nil
}

// Start runs the schedule until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("retention run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add retention job: %w", err)
	}

	s.logger.Info("retention scheduler started", "schedule", s.schedule)
	s.cron.Start()

	<-ctx.Done()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(10 * time.Second):
		s.logger.Warn("retention run still in progress at shutdown")
	}
	s.logger.Info("retention scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := s.pruner.Prune(ctx)
	s.metrics.RetentionRun(deleted, err)
	if err != nil {
		return 0, fmt.Errorf("prune states: %w", err)
	}
	s.logger.Info("retention run finished",
		"deleted", deleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return deleted, nil
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
