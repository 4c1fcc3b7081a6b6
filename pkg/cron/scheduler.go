// Package cron runs the service's background jobs.
package cron

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Reloader is anything with a reloadable snapshot, in practice the keyword
// provider.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler refreshes the keyword snapshot on the hour so new keywords take
// effect without a restart.
type Scheduler struct {
	cron     *cron.Cron
	keywords Reloader
	logger   *slog.Logger
}

// NewScheduler creates the scheduler. Jobs do not run until Start.
func NewScheduler(keywords Reloader, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		keywords: keywords,
		logger:   logger,
	}

	if _, err := s.cron.AddFunc("0 * * * *", s.reloadKeywords); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running jobs on their schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("background scheduler started")
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("background scheduler stopped")
}

func (s *Scheduler) reloadKeywords() {
	ctx := context.Background()
	if err := s.keywords.Reload(ctx); err != nil {
		s.logger.ErrorContext(ctx, "keyword reload failed", slog.Any("error", err))
	}
}
