package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ateliermoda/moda-backend/internal/catalog"
	"github.com/ateliermoda/moda-backend/internal/mailer"
	"github.com/ateliermoda/moda-backend/pkg/config"
	"github.com/ateliermoda/moda-backend/pkg/db"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/ateliermoda/moda-backend/pkg/pubsub"
	"github.com/joho/godotenv"
)

// Runs one low-stock sweep over the catalog, queues an alert per line when
// pubsub is configured, and prints the report to stdout.
func main() {
	logg := logger.New(logger.Options{ServiceName: "stockcheck"})

	_ = godotenv.Load()

	threshold := flag.Int("threshold", 0, "override the configured low-stock threshold")
	quiet := flag.Bool("quiet", false, "suppress the stdout report")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "stockcheck",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	var notifier *mailer.Enqueuer
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(ctx, "error closing pubsub", err)
			}
		}()

		notifier, err = mailer.NewEnqueuer(pubsubClient.EmailPublisher(), logg)
		if err != nil {
			logg.Error(ctx, "failed to create alert enqueuer", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "pubsub disabled, low-stock alerts will not be queued")
	}

	limit := cfg.Stock.LowThreshold
	if *threshold > 0 {
		limit = *threshold
	}

	checker, err := newChecker(catalog.NewRepository(dbClient.DB()), notifier, limit, logg)
	if err != nil {
		logg.Error(ctx, "failed to create stock checker", err)
		os.Exit(1)
	}

	report, err := checker.Run(ctx)
	if err != nil {
		logg.Error(ctx, "stock check failed", err)
		os.Exit(1)
	}

	if !*quiet {
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logg.Error(ctx, "failed to encode report", err)
			os.Exit(1)
		}
		fmt.Println(string(encoded))
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"threshold": report.Threshold,
		"lines":     len(report.Lines),
	})
	logg.Info(logCtx, "stock check complete")
}

// newChecker keeps the nil-notifier case out of main's happy path. A typed nil
// *mailer.Enqueuer must not reach the checker as a non-nil interface.
func newChecker(repo *catalog.Repository, notifier *mailer.Enqueuer, threshold int, logg *logger.Logger) (*catalog.StockChecker, error) {
	if notifier == nil {
		return catalog.NewStockChecker(repo, nil, threshold, logg, nil)
	}
	return catalog.NewStockChecker(repo, notifier, threshold, logg, nil)
}
