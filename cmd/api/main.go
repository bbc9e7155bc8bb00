package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/belldesk-backend/api/routes"
	"github.com/angelmondragon/belldesk-backend/internal/deposits"
	"github.com/angelmondragon/belldesk-backend/internal/luggage"
	"github.com/angelmondragon/belldesk-backend/internal/staff"
	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/db"
	"github.com/angelmondragon/belldesk-backend/pkg/instance"
	"github.com/angelmondragon/belldesk-backend/pkg/lock"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
	"github.com/angelmondragon/belldesk-backend/pkg/migrate"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox"
	"github.com/angelmondragon/belldesk-backend/pkg/redis"
)

const releaseLockScope = "deposit-release"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	releaseLocks, err := lock.NewKeyed(redisClient, cfg.Desk.ReleaseLockTTL, func(id string) string {
		return redisClient.LockKey(releaseLockScope, id)
	})
	if err != nil {
		logg.Error(ctx, "failed to create release locker", err)
		os.Exit(1)
	}

	luggageService, err := luggage.NewService(luggage.ServiceParams{
		Repo:   luggage.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Outbox: emitter,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create luggage service", err)
		os.Exit(1)
	}

	depositService, err := deposits.NewService(deposits.ServiceParams{
		Repo:         deposits.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Outbox:       emitter,
		Locks:        releaseLocks,
		Metrics:      metrics.NewDepositReleaseMetrics(reg),
		Location:     cfg.Desk.Location(),
		HistoryLimit: cfg.Desk.HistoryLimit,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create deposit service", err)
		os.Exit(1)
	}

	staffService, err := staff.NewService(staff.ServiceParams{
		Repo:   staff.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create staff service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"timezone": cfg.Desk.Location().String(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			HTTPMetrics: metrics.NewHTTPMetrics(reg),
			Gatherer:    reg,
			Luggage:     luggageService,
			Deposits:    depositService,
			Staff:       staffService,
		}),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}
