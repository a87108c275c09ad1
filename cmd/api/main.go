package main

import (
	"context"
	"net/http"
	"os"

	"github.com/ateliermoda/moda-backend/api/routes"
	"github.com/ateliermoda/moda-backend/internal/address"
	"github.com/ateliermoda/moda-backend/internal/auth"
	"github.com/ateliermoda/moda-backend/internal/cart"
	"github.com/ateliermoda/moda-backend/internal/catalog"
	"github.com/ateliermoda/moda-backend/internal/mailer"
	"github.com/ateliermoda/moda-backend/internal/users"
	"github.com/ateliermoda/moda-backend/pkg/auth/session"
	"github.com/ateliermoda/moda-backend/pkg/config"
	"github.com/ateliermoda/moda-backend/pkg/db"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/ateliermoda/moda-backend/pkg/metrics"
	"github.com/ateliermoda/moda-backend/pkg/migrate"
	"github.com/ateliermoda/moda-backend/pkg/pubsub"
	"github.com/ateliermoda/moda-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	// The confirmation-email queue is optional: without a GCP project the API
	// still serves traffic and registration logs the skipped enqueue.
	var enqueuer *mailer.Enqueuer
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()

		enqueuer, err = mailer.NewEnqueuer(pubsubClient.EmailPublisher(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create email enqueuer", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "pubsub disabled, confirmation emails will not be queued")
	}

	userRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	mergeService, err := cart.NewMergeService(cartRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart merge service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	authParams := auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		CartMerger:     mergeService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		AppConfig:      cfg.App,
		Logger:         logg,
	}
	if enqueuer != nil {
		authParams.Enqueuer = enqueuer
	}
	authService, err := auth.NewService(authParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	// promhttp.Handler in the router serves the default registry.
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.New(routes.Dependencies{
			Config:         cfg,
			Logger:         logg,
			AuthService:    authService,
			CartService:    cartService,
			CatalogService: catalogService,
			AddressService: addressService,
			UserRepo:       userRepo,
			SessionChecker: sessionManager,
			RateLimitStore: redisClient,
			HTTPMetrics:    httpMetrics,
			DBPinger:       dbClient,
			RedisPinger:    redisClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
