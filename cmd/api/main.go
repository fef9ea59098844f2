// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/templates/postboard/internal/admin"
	"github.com/carterperez-dev/templates/postboard/internal/auth"
	"github.com/carterperez-dev/templates/postboard/internal/config"
	"github.com/carterperez-dev/templates/postboard/internal/core"
	"github.com/carterperez-dev/templates/postboard/internal/health"
	"github.com/carterperez-dev/templates/postboard/internal/middleware"
	"github.com/carterperez-dev/templates/postboard/internal/post"
	"github.com/carterperez-dev/templates/postboard/internal/server"
	"github.com/carterperez-dev/templates/postboard/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file; environment variables override it")
	genKey := flag.Bool("generate-session-key", false, "write a new session key pair and exit")
	flag.Parse()

	if *genKey {
		if err := generateSessionKey(*configPath); err != nil {
			slog.Error("generate session key", "error", err)
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
		"tx_timeout", cfg.Database.TxTimeout,
	)

	if cfg.Database.AutoMigrate {
		version, migErr := core.Migrate(db.DB.DB)
		if migErr != nil {
			return migErr
		}
		logger.Info("schema migrated", "version", version)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	authStore := auth.NewStore(redis.Client)

	sessions, err := auth.NewSessionManager(cfg.Session, authStore)
	if err != nil {
		return err
	}
	logger.Info("session manager initialized",
		"algorithm", "ES256",
		"ttl", cfg.Session.TTL,
	)

	txProvider := core.NewTxProvider(db.DB, cfg.Database.TxTimeout)

	userSvc := user.NewService(
		txProvider,
		user.NewRepository,
		user.NewAccountNameGenerator(cfg.User.AccountNameAttempts),
	)
	userHandler := user.NewHandler(userSvc)

	postSvc := post.NewService(txProvider, post.NewRepository)
	postHandler := post.NewHandler(postSvc)

	authSvc := auth.NewService(
		userSvc,
		auth.NewGoogleProvider(cfg.Google),
		sessions,
		authStore,
	)
	authHandler := auth.NewHandler(authSvc, cfg.Session, cfg.Google.SuccessURL)
	userHandler.WithSessionCloser(authHandler)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.Sources{
		Database: db,
		Redis:    redis,
		Content:  admin.NewStatsRepository(txProvider),
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.OptionalAuth(authSvc, cfg.Session.CookieName))
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(ctx, redis.Client, middleware.RateLimitOptions{
			Limit:    middleware.LimitFromConfig(cfg.RateLimit),
			KeyFunc:  middleware.KeyByUser,
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	router.Get("/.well-known/jwks.json", sessions.JWKSHandler())

	authenticator := middleware.Authenticator(authSvc, cfg.Session.CookieName)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		postHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

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

func generateSessionKey(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	publicPath := cfg.Session.PrivateKeyPath + ".pub"
	if err := auth.GenerateKeyPair(cfg.Session.PrivateKeyPath, publicPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", cfg.Session.PrivateKeyPath, publicPath)
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
