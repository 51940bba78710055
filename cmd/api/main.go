// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/shelflife/internal/admin"
	"github.com/carterperez-dev/shelflife/internal/auth"
	"github.com/carterperez-dev/shelflife/internal/catalog"
	"github.com/carterperez-dev/shelflife/internal/config"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/franchise"
	"github.com/carterperez-dev/shelflife/internal/health"
	"github.com/carterperez-dev/shelflife/internal/inventory"
	"github.com/carterperez-dev/shelflife/internal/middleware"
	"github.com/carterperez-dev/shelflife/internal/notify"
	"github.com/carterperez-dev/shelflife/internal/realtime"
	"github.com/carterperez-dev/shelflife/internal/server"
	"github.com/carterperez-dev/shelflife/internal/store"
	"github.com/carterperez-dev/shelflife/internal/user"
)

const (
	drainDelay         = 5 * time.Second
	sessionSweepPeriod = time.Hour
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool("generate-keys", false, "write a new JWT key pair to the configured paths and exit")
	flag.Parse()

	if *generateKeys {
		if err := writeKeyPair(*configPath); err != nil {
			slog.Error("generate keys", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if errors.Is(err, config.ErrNotConfigured) {
		logger := setupLogger(cfg.Log)
		slog.SetDefault(logger)
		logger.Warn("backend not configured, serving configuration required", "error", err)
		return runNotConfigured(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mailer, err := notify.NewMailer(ctx, cfg.Mail, logger)
	if err != nil {
		return err
	}
	templates := notify.NewTemplates(cfg.Mail)

	broker := realtime.NewBroker(redis.Client)

	storeSvc := store.NewService(store.NewRepository(db.DB), broker, logger)

	userSvc := user.NewService(user.ServiceConfig{
		DB:        db.DB,
		Stores:    storeSvc,
		Events:    broker,
		Mailer:    mailer,
		Templates: templates,
		Logger:    logger,
	})

	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:      auth.NewRepository(db.DB),
		JWT:       jwtManager,
		Users:     userSvc,
		Redis:     redis.Client,
		Mailer:    mailer,
		Templates: templates,
		Logger:    logger,
	})

	franchiseRepo := franchise.NewRepository(db.DB)
	franchiseSvc := franchise.NewService(franchise.ServiceConfig{
		Repo:    franchiseRepo,
		Stores:  storeSvc,
		Pending: userSvc,
		Changes: broker,
		Actors:  userSvc,
		Logger:  logger,
	})

	catalogSvc := catalog.NewService(catalog.NewRepository(db.DB))

	inventorySvc := inventory.NewService(inventory.ServiceConfig{
		DB:        db.DB,
		Stores:    storeSvc,
		Events:    broker,
		Logger:    logger,
		Inventory: cfg.Inventory,
	})

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:      db.Stats,
		RedisStats:   redis.PoolStats,
		DBPing:       db.Ping,
		RedisPing:    redis.Ping,
		Franchises:   franchiseSvc.Count,
		Stores:       storeSvc.Count,
		PendingUsers: userSvc.CountPending,
		Inventory:    inventorySvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.NewHTTPMetrics(prometheus.DefaultRegisterer).Handler)
	}
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	limit := middleware.FromWindow(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		cfg.RateLimit.Burst,
	)

	authenticated := chi.Chain(
		middleware.Authenticator(jwtManager, authSvc),
		middleware.Session(userSvc),
		middleware.UserRateLimiter(redis.Client, limit),
	).Handler

	router.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Name:     "auth",
				Limit:    limit,
				KeyFunc:  middleware.KeyByIP,
				FailOpen: true,
			}).Handler)

			auth.NewHandler(authSvc).RegisterRoutes(r, authenticated)
		})

		franchise.NewHandler(franchiseSvc).RegisterRoutes(r, authenticated)
		store.NewHandler(storeSvc).RegisterRoutes(r, authenticated)
		user.NewHandler(userSvc).RegisterRoutes(r, authenticated)
		catalog.NewHandler(catalogSvc).RegisterRoutes(r, authenticated)
		inventory.NewHandler(inventorySvc).RegisterRoutes(r, authenticated)
		adminHandler.RegisterRoutes(r, authenticated)
	})

	go sweepSessions(ctx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// runNotConfigured serves the configuration required response on every
// route until the process is signalled.
func runNotConfigured(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv := server.New(server.Config{
		ServerConfig: cfg.Server,
		Logger:       logger,
	})

	router := srv.Router()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	server.MountNotConfigured(router)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx, 0)
}

func sweepSessions(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", "count", n)
			}
		}
	}
}

// writeKeyPair only needs the jwt section, so an unconfigured backend is
// not an error here.
func writeKeyPair(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil && !errors.Is(err, config.ErrNotConfigured) {
		return err
	}

	for _, path := range []string{cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}

	if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
		return err
	}

	slog.Info("JWT key pair written",
		"private_key", cfg.JWT.PrivateKeyPath,
		"public_key", cfg.JWT.PublicKeyPath,
	)
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
