package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/folio-tracker/internal/domain/holdings"
	holdingshandler "github.com/FACorreiaa/folio-tracker/internal/domain/holdings/handler"
	"github.com/FACorreiaa/folio-tracker/internal/domain/import/dedup"
	importhandler "github.com/FACorreiaa/folio-tracker/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/folio-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
	tradeshandler "github.com/FACorreiaa/folio-tracker/internal/domain/trades/handler"
	tradesrepo "github.com/FACorreiaa/folio-tracker/internal/domain/trades/repository"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades/search"
	"github.com/FACorreiaa/folio-tracker/pkg/config"
	"github.com/FACorreiaa/folio-tracker/pkg/cron"
	"github.com/FACorreiaa/folio-tracker/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	// Repositories
	TradeRepo    *tradesrepo.PostgresTradeRepository
	SnapshotRepo *holdings.SnapshotRepository

	// Services
	SearchIndex     *search.Index
	TradeService    *trades.Service
	ImportService   *importservice.ImportService
	HoldingsService *holdings.Service
	Scheduler       *cron.Scheduler

	// Handlers
	ImportHandler   *importhandler.ImportHandler
	TradeHandler    *tradeshandler.TradeHandler
	HoldingsHandler *holdingshandler.HoldingsHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	if err := deps.initServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase connects the pool and runs migrations.
func (d *Dependencies) initDatabase(ctx context.Context) error {
	dsn := d.Config.Database.DSN()

	if err := db.Migrate(dsn, d.Logger); err != nil {
		return err
	}

	pool, err := db.Connect(ctx, dsn, d.Logger)
	if err != nil {
		return err
	}
	d.Pool = pool

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initServices initializes repositories and the service layer.
func (d *Dependencies) initServices(ctx context.Context) error {
	d.TradeRepo = tradesrepo.NewPostgresTradeRepository(d.Pool)
	d.SnapshotRepo = holdings.NewSnapshotRepository(d.Pool)

	index, err := search.NewIndex()
	if err != nil {
		return fmt.Errorf("failed to init search index: %w", err)
	}
	d.SearchIndex = index

	d.TradeService = trades.NewService(d.TradeRepo, d.SearchIndex, d.Logger)
	if err := d.TradeService.ReindexAll(ctx); err != nil {
		return err
	}

	d.ImportService = importservice.NewImportService(d.TradeRepo, d.Logger).
		WithTolerances(duplicateTolerances(d.Config.Import))

	d.HoldingsService = holdings.NewService(d.TradeRepo, d.Logger)

	d.Scheduler = cron.NewScheduler(d.HoldingsService, d.SnapshotRepo, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies.
func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)
	d.TradeHandler = tradeshandler.NewTradeHandler(d.TradeService, d.SearchIndex, d.Logger)
	d.HoldingsHandler = holdingshandler.NewHoldingsHandler(d.HoldingsService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		stopped := d.Scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-time.After(10 * time.Second):
			d.Logger.Warn("cron jobs did not stop in time")
		}
	}
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	d.Logger.Info("cleanup completed")
}

func duplicateTolerances(cfg config.ImportConfig) dedup.Tolerances {
	tol := dedup.DefaultTolerances()
	if q, err := decimal.NewFromString(cfg.DuplicateQuantityTolerance); err == nil && q.IsPositive() {
		tol.Quantity = q
	}
	if p, err := decimal.NewFromString(cfg.DuplicatePriceTolerance); err == nil && p.IsPositive() {
		tol.Price = p
	}
	if cfg.DuplicateTimeToleranceSecs > 0 {
		tol.Time = time.Duration(cfg.DuplicateTimeToleranceSecs) * time.Second
	}
	return tol
}
