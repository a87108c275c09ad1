package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ateliermoda/moda-backend/internal/mailer"
	"github.com/ateliermoda/moda-backend/pkg/config"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/ateliermoda/moda-backend/pkg/metrics"
	"github.com/ateliermoda/moda-backend/pkg/pubsub"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "email-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "email-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	sender, err := mailer.NewLogSender(cfg.Email, logg)
	if err != nil {
		logg.Error(ctx, "failed to create email sender", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	worker, err := mailer.NewWorker(pubsubClient.EmailSubscription(), sender, logg, jobMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create email worker", err)
		os.Exit(1)
	}

	logCtx := logg.WithField(ctx, "subscription", cfg.PubSub.EmailSubscription)
	logg.Info(logCtx, "starting email worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(logCtx, "email worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(logCtx, "email worker shutting down gracefully")
}
