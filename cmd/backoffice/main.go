package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/engffsantos/easyStock360/internal/app"
	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/customers"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/observability"
	"github.com/engffsantos/easyStock360/internal/platform/cache"
	"github.com/engffsantos/easyStock360/internal/platform/db"
	"github.com/engffsantos/easyStock360/internal/platform/httpx"
	"github.com/engffsantos/easyStock360/internal/returns"
	"github.com/engffsantos/easyStock360/internal/sales"
	"github.com/engffsantos/easyStock360/internal/settings"
	"github.com/engffsantos/easyStock360/internal/shared"
	"github.com/engffsantos/easyStock360/jobs"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply schema migrations and exit")
	flag.Parse()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if *migrateOnly || cfg.MigrateOnStart {
		version, err := db.Migrate(dbpool)
		if err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema ready", slog.Uint64("version", uint64(version)))
		if *migrateOnly {
			return
		}
	}

	// Without redis the credit ledger falls back to row locks and uncached reads.
	var (
		balances      *cache.JSONCache
		settingsCache *cache.JSONCache
		locker        *cache.Locker
	)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		balances = cache.NewJSONCache(redisClient, cfg.CreditCacheTTL)
		settingsCache = cache.NewJSONCache(redisClient, cfg.SettingsCacheTTL)
		locker = cache.NewLocker(redisClient, cfg.CreditLockTTL)
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	validate := httpx.NewValidator()

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, metrics)
	customersService := customers.NewService(customers.NewRepository(dbpool))
	creditService := credit.NewService(credit.NewRepository(dbpool), balances, locker, auditLogger, metrics)
	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, creditService, auditLogger, metrics, sales.Config{QuoteValidityDays: cfg.QuoteValidityDays})
	returnsService := returns.NewService(returns.NewRepository(dbpool), salesRepo, creditService, auditLogger, metrics)
	financeService := finance.NewService(finance.NewRepository(dbpool))
	settingsService := settings.NewService(settings.NewRepository(dbpool), settingsCache)

	jobHandler := newJobHandler(cfg, redisClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Idempotency:      idempotencyStore,
		Metrics:          metrics,
		InventoryHandler: inventory.NewHandler(logger, inventoryService, validate),
		CustomersHandler: customers.NewHandler(logger, customersService, validate),
		CreditHandler:    credit.NewHandler(logger, creditService, validate),
		SalesHandler:     sales.NewHandler(logger, salesService, validate),
		ReturnsHandler:   returns.NewHandler(logger, returnsService, validate),
		FinanceHandler:   finance.NewHandler(logger, financeService, validate),
		SettingsHandler:  settings.NewHandler(logger, settingsService, validate),
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}

// newJobHandler exposes queue health and on-demand sweeps when redis is reachable.
func newJobHandler(cfg *app.Config, redisClient *redis.Client, logger *slog.Logger) *jobs.Handler {
	if redisClient == nil {
		return jobs.NewHandler(nil, nil, logger)
	}
	opts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		logger.Warn("jobs client", slog.Any("error", err))
		return jobs.NewHandler(asynq.NewInspector(opts), nil, logger)
	}
	return jobs.NewHandler(asynq.NewInspector(opts), client, logger)
}
