package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/belldesk-backend/internal/audit"
	"github.com/angelmondragon/belldesk-backend/internal/audit/types"
	"github.com/angelmondragon/belldesk-backend/internal/audit/worker"
	"github.com/angelmondragon/belldesk-backend/internal/audit/writer"
	"github.com/angelmondragon/belldesk-backend/pkg/bigquery"
	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/instance"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox/registry"
	"github.com/angelmondragon/belldesk-backend/pkg/pubsub"
	"github.com/angelmondragon/belldesk-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "audit-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "audit-worker"

	logg = logger.New(logger.Options{
		ServiceName: "audit-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "failed to close bigquery client", err)
		}
	}()

	subscription := pubsubClient.DeskSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "desk subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	requireResource(ctx, logg, "desk events schema", bqClient.RequireColumns(ctx, types.DeskEventColumns()))

	deskWriter, err := writer.New(bqClient, writer.Config{Table: bqClient.DeskEventsTable()})
	requireResource(ctx, logg, "desk events writer", err)

	handler, err := audit.NewHandler(deskWriter, registry.NewDeskDecoderRegistry())
	requireResource(ctx, logg, "audit handler", err)

	service, err := worker.NewService(subscription, handler, manager, logg)
	requireResource(ctx, logg, "audit worker service", err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"instance":     instance.GetID(),
		"subscription": cfg.PubSub.DeskSubscription,
		"table":        bqClient.DeskEventsTable(),
	})

	go func() {
		if err := metrics.Serve(runCtx, cfg.Service.MetricsAddr, reg); err != nil {
			logg.Error(runCtx, "metrics listener stopped", err)
		}
	}()

	logg.Info(runCtx, "audit worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "audit worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
