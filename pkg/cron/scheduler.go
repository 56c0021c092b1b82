// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/folio-tracker/internal/domain/holdings"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	holdings  *holdings.Service
	snapshots *holdings.SnapshotRepository
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(holdingsService *holdings.Service, snapshots *holdings.SnapshotRepository, logger *slog.Logger) *Scheduler {
	// Standard 5-field format, seconds disabled
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		holdings:  holdingsService,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Portfolio snapshot: runs daily at 2:00 AM
	_, err := s.cron.AddFunc("0 2 * * *", s.snapshotPortfolio)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the portfolio snapshot (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.snapshotPortfolio()
}

// snapshotPortfolio aggregates the ledger and persists the daily totals.
func (s *Scheduler) snapshotPortfolio() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.logger.Info("starting daily portfolio snapshot")

	portfolio, err := s.holdings.Portfolio(ctx)
	if err != nil {
		s.logger.Error("failed to compute portfolio for snapshot", slog.Any("error", err))
		return
	}

	snap, err := s.snapshots.Save(ctx, portfolio)
	if err != nil {
		s.logger.Error("failed to save portfolio snapshot", slog.Any("error", err))
		return
	}

	s.logger.Info("daily portfolio snapshot completed",
		slog.String("snapshot_id", snap.ID.String()),
		slog.Int("positions", snap.PositionCount),
		slog.String("total_invested", snap.TotalInvested.String()),
	)
}
