package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gatehouse-api/gatehouse-api/internal/app"
	"github.com/gatehouse-api/gatehouse-api/internal/auth"
	"github.com/gatehouse-api/gatehouse-api/internal/observability"
	"github.com/gatehouse-api/gatehouse-api/internal/platform/cache"
	"github.com/gatehouse-api/gatehouse-api/internal/platform/db"
	"github.com/gatehouse-api/gatehouse-api/internal/rbac"
	"github.com/gatehouse-api/gatehouse-api/internal/roles"
	"github.com/gatehouse-api/gatehouse-api/internal/shared"
	"github.com/gatehouse-api/gatehouse-api/internal/token"
	"github.com/gatehouse-api/gatehouse-api/internal/users"
	"github.com/gatehouse-api/gatehouse-api/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	codec, err := token.LoadCodec(cfg.TokenPrivateKeyFile, cfg.TokenPublicKeyFile, cfg.TokenIssuer)
	if err != nil {
		logger.Error("load signing keys", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(pool)

	rbacRepo := rbac.NewRepository(pool)
	permissionCache := rbac.NewCache(redisClient, cfg.PermissionCacheTTL)
	rbacService := rbac.NewService(rbacRepo, permissionCache, auditLogger, logger)
	guard := rbac.Guard{Codec: codec, Service: rbacService, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, guard)

	if err := rbac.Bootstrap(ctx, rbacService, logger); err != nil {
		logger.Error("seed roles and permissions", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, codec, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, permissionCache, auditLogger, logger)
	rolesHandler := roles.NewHandler(logger, rolesService, guard)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, rolesRepo)
	usersHandler := users.NewHandler(logger, usersService, guard)

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("init job client", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		if _, err := jobClient.EnqueueCacheWarmup(ctx, jobs.CacheWarmupPayload{}); err != nil {
			logger.Warn("enqueue cache warmup", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthHandler:  authHandler,
		UsersHandler: usersHandler,
		RolesHandler: rolesHandler,
		RBACHandler:  rbacHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
