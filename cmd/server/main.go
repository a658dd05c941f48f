package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"ridehail/internal/app"
	"ridehail/internal/config"
	"ridehail/internal/maps"
	internalRedis "ridehail/internal/redis"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path of a dotenv file to load before reading the environment")
	port := pflag.String("port", "", "HTTP port, overrides SERVER_PORT")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic comes first so the database and Redis clients can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	store, db, err := openStore(ctx, cfg, nrApp, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	deps := app.WireDeps{
		Config:      cfg,
		Store:       store,
		NewRelicApp: nrApp,
		Logger:      logger,
	}

	var cache maps.Cache
	if cfg.Redis.Enabled {
		redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		cacheStore := internalRedis.NewCacheStore(redisClient)
		cache = cacheStore
		deps.Idempotency = cacheStore
		deps.Locations = internalRedis.NewLocationStore(redisClient)
	}

	deps.Maps = maps.NewClient(maps.Options{
		NominatimURL: cfg.Maps.NominatimURL,
		RoutingURL:   cfg.Maps.RoutingURL,
		APIKey:       cfg.Maps.APIKey,
		UserAgent:    cfg.Maps.UserAgent,
		Timeout:      cfg.Maps.Timeout,
		CacheTTL:     cfg.Maps.CacheTTL,
	}, cache, logger.Named("maps"))
	if cfg.Maps.APIKey == "" {
		logger.Warn("OPENROUTESERVICE_API_KEY is not set; ride creation and fare quotes will fail")
	}

	components := app.Wire(deps)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      components.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
			zap.String("socket_path", cfg.Server.SocketPath),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	components.Hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, logger *zap.Logger) (app.Store, *sql.DB, error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.Warn("using the in-memory store; data is lost on restart")
		return app.NewMemoryStore(), nil, nil
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		return app.Store{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	return app.NewPostgresStore(db), db, nil
}
