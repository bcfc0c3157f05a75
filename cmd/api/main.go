package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/carni-kridi/attar-backend/api/controllers"
	"github.com/carni-kridi/attar-backend/api/routes"
	"github.com/carni-kridi/attar-backend/internal/auth"
	"github.com/carni-kridi/attar-backend/internal/clients"
	"github.com/carni-kridi/attar-backend/internal/kridi"
	"github.com/carni-kridi/attar-backend/internal/seed"
	"github.com/carni-kridi/attar-backend/internal/stores"
	"github.com/carni-kridi/attar-backend/internal/users"
	"github.com/carni-kridi/attar-backend/pkg/auth/session"
	"github.com/carni-kridi/attar-backend/pkg/config"
	"github.com/carni-kridi/attar-backend/pkg/db"
	"github.com/carni-kridi/attar-backend/pkg/instance"
	"github.com/carni-kridi/attar-backend/pkg/logger"
	"github.com/carni-kridi/attar-backend/pkg/metrics"
	"github.com/carni-kridi/attar-backend/pkg/migrate"
	"github.com/carni-kridi/attar-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api stopped with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.AutoRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	if cfg.FeatureFlags.SeedDemo && !cfg.App.IsProd() {
		seedCfg := seed.DefaultConfig()
		seedCfg.Argon = cfg.Password
		if _, err := seed.Run(ctx, dbClient, seedCfg, logg); err != nil {
			return err
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	userRepo := users.NewRepository(dbClient.DB())
	storeRepo := stores.NewRepository(dbClient.DB())
	ledgerRepo := kridi.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		StoreRepo:      storeRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	storeService, err := stores.NewService(storeRepo, dbClient)
	if err != nil {
		return err
	}
	userService, err := users.NewService(userRepo)
	if err != nil {
		return err
	}
	clientService, err := clients.NewService(clients.NewRepository(dbClient.DB()), ledgerRepo, dbClient)
	if err != nil {
		return err
	}
	kridiService, err := kridi.NewService(ledgerRepo, dbClient, ledgerMetrics)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		map[string]controllers.Pinger{"database": dbClient, "redis": redisClient},
		redisClient,
		sessionManager,
		httpMetrics,
		registry,
		authService,
		storeService,
		userService,
		clientService,
		kridiService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
