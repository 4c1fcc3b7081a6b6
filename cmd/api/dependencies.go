package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cardledger/cardledger/internal/api"
	"github.com/cardledger/cardledger/internal/domain/auth"
	"github.com/cardledger/cardledger/internal/domain/categorization"
	importhandler "github.com/cardledger/cardledger/internal/domain/import/handler"
	"github.com/cardledger/cardledger/internal/domain/import/parser"
	importservice "github.com/cardledger/cardledger/internal/domain/import/service"
	"github.com/cardledger/cardledger/internal/domain/transaction"
	txhandler "github.com/cardledger/cardledger/internal/domain/transaction/handler"
	"github.com/cardledger/cardledger/internal/domain/user"
	"github.com/cardledger/cardledger/pkg/config"
	"github.com/cardledger/cardledger/pkg/cron"
	"github.com/cardledger/cardledger/pkg/db"
	"github.com/cardledger/cardledger/pkg/metrics"
)

// Dependencies wires the whole service together, outermost last.
type Dependencies struct {
	cfg    *config.Config
	logger *slog.Logger

	pool      *pgxpool.Pool
	registry  *prometheus.Registry
	scheduler *cron.Scheduler

	transactionRepo *transaction.Repository
	userRepo        *user.Repository
	keywordRepo     *categorization.Repository

	keywordProvider *categorization.Provider
	importService   *importservice.Service
	txService       *transaction.Service
	tokens          *auth.TokenManager

	app *fiber.App
}

func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	d := &Dependencies{cfg: cfg, logger: logger}

	if err := d.initDatabase(ctx); err != nil {
		return nil, err
	}
	d.initRepositories()
	if err := d.initServices(ctx); err != nil {
		d.Cleanup()
		return nil, err
	}
	d.initRouter()
	return d, nil
}

func (d *Dependencies) initDatabase(ctx context.Context) error {
	dsn := d.cfg.Database.DSN()
	if err := db.RunMigrations(dsn, d.logger); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	d.pool = pool
	return nil
}

func (d *Dependencies) initRepositories() {
	d.transactionRepo = transaction.NewRepository(d.pool)
	d.userRepo = user.NewRepository(d.pool)
	d.keywordRepo = categorization.NewRepository(d.pool)
}

func (d *Dependencies) initServices(ctx context.Context) error {
	d.registry = prometheus.NewRegistry()
	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	provider, err := categorization.NewProvider(ctx, d.keywordRepo, d.logger)
	if err != nil {
		return fmt.Errorf("keyword provider: %w", err)
	}
	d.keywordProvider = provider

	scheduler, err := cron.NewScheduler(provider, d.logger)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	d.scheduler = scheduler

	d.importService = importservice.New(
		d.transactionRepo,
		d.userRepo,
		categorization.NewCategorizer(provider),
		parser.NewKookminParser(),
		metrics.NewImport(d.registry),
		d.logger,
	)
	d.txService = transaction.NewService(d.transactionRepo, d.logger)
	d.tokens = auth.NewTokenManager(d.cfg.Auth.JWTSecret, d.cfg.Auth.TokenTTL)
	return nil
}

func (d *Dependencies) initRouter() {
	oauthHandler := auth.NewOAuthHandler(auth.OAuthConfig{
		ClientID:      d.cfg.Auth.GoogleClientID,
		ClientSecret:  d.cfg.Auth.GoogleClientSecret,
		CallbackURL:   d.cfg.Auth.GoogleCallbackURL,
		SessionSecret: d.cfg.Auth.SessionSecret,
	}, d.userRepo, d.tokens, d.logger)

	d.app = api.NewRouter(api.RouterConfig{
		Imports:          importhandler.NewImportHandler(d.importService, d.logger),
		Transactions:     txhandler.NewTransactionHandler(d.txService, d.userRepo, d.logger),
		OAuth:            oauthHandler,
		Tokens:           d.tokens,
		Registry:         d.registry,
		StaticDir:        d.cfg.Server.StaticDir,
		UploadRatePerMin: d.cfg.Server.UploadRatePerMin,
	})
}

// Cleanup releases resources in reverse construction order.
func (d *Dependencies) Cleanup() {
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}
