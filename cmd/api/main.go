package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ip-manager/internal/api/http"
	"github.com/spec-kit/ip-manager/internal/api/http/handlers"
	"github.com/spec-kit/ip-manager/internal/auth"
	"github.com/spec-kit/ip-manager/internal/config"
	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/events"
	"github.com/spec-kit/ip-manager/internal/observability"
	"github.com/spec-kit/ip-manager/internal/persistence"
	"github.com/spec-kit/ip-manager/internal/repository"
	"github.com/spec-kit/ip-manager/internal/service"
	"github.com/spec-kit/ip-manager/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set; using the built-in development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := map[string]handlers.Pinger{}
	var (
		users repository.UserRepository
		ips   repository.IPRepository
	)
	ids := repository.NewIDGenerator(repository.SystemClock)

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationSource(cfg.Postgres.MigrationsDir), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		users = repository.NewUserRepository(pg.PoolHandle(), repository.SystemClock)
		ips = repository.NewIPRepository(pg.PoolHandle(), ids, repository.SystemClock)
		deps["postgres"] = pg
	default:
		if err := persistence.EnsureDataDir(cfg.Store.DataDir); err != nil {
			logger.Fatal("failed to prepare data directory", zap.Error(err))
		}
		usersCol := persistence.NewJSONCollection[domain.User](cfg.Store.DataDir, "users", logger)
		ipsCol := persistence.NewJSONCollection[domain.IPEntry](cfg.Store.DataDir, "ips", logger)
		users = repository.NewJSONUserRepository(usersCol, repository.SystemClock)
		ips = repository.NewJSONIPRepository(ipsCol, ids, repository.SystemClock)
		deps["users_store"] = usersCol
		deps["ips_store"] = ipsCol
	}

	var limiterStorage fiber.Storage
	if redis := persistence.NewRedis(cfg.Redis, logger); redis != nil {
		defer redis.Close()
		deps["redis"] = redis
		if cfg.RateLimit.Storage == config.LimiterStorageRedis {
			limiterStorage = persistence.NewRedisStorage(redis, "ip-manager:ratelimit:")
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), nil)
	authService := service.NewAuthService(cfg.Auth, users, tokens, logger)
	if _, err := authService.EnsureDefaultAdmin(ctx); err != nil {
		logger.Fatal("failed to seed default admin", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifier := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifier)

	inventoryService := service.NewInventoryService(ips, dispatcher, repository.SystemClock, logger)
	exportService := service.NewExportService(ips, logger)
	metrics := observability.NewMetrics()

	app := httptransport.NewApp(cfg.App.Name, logger)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:           logger,
		Metrics:          metrics,
		Timeout:          cfg.App.RequestTimeout(),
		RateLimitMax:     cfg.RateLimit.Max,
		RateLimitWindow:  cfg.RateLimit.Window(),
		RateLimitStorage: limiterStorage,
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:                handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:                  handlers.NewAuthHandler(authService),
		IPs:                   handlers.NewIPsHandler(inventoryService),
		Export:                handlers.NewExportHandler(exportService),
		Metrics:               handlers.NewMetricsHandler(metrics),
		AuthMiddleware:        auth.NewAuthMiddleware(authService.TokenManager()),
		RegisterRequiresAdmin: cfg.Auth.RegisterRequiresAdmin,
		StaticDir:             cfg.App.StaticDir,
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("store", cfg.Store.Driver),
			zap.String("data_dir", cfg.Store.DataDir))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	notifier.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
