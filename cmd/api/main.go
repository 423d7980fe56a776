package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/campus-voice/internal/api/http"
	"github.com/spec-kit/campus-voice/internal/api/http/handlers"
	"github.com/spec-kit/campus-voice/internal/auth"
	"github.com/spec-kit/campus-voice/internal/config"
	"github.com/spec-kit/campus-voice/internal/events"
	"github.com/spec-kit/campus-voice/internal/observability"
	"github.com/spec-kit/campus-voice/internal/persistence"
	"github.com/spec-kit/campus-voice/internal/realtime"
	"github.com/spec-kit/campus-voice/internal/repository"
	"github.com/spec-kit/campus-voice/internal/service"
	"github.com/spec-kit/campus-voice/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	concernRepo := repository.NewConcernRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	publisher := realtime.NewPublisher(redis.Client, logger)
	worker.StartRealtimeWorker(dispatcher, publisher)

	source := realtime.NewRedisTokenSource(redis.Client, logger)
	bridge := realtime.NewBridge(source, logger, metrics)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		RoleRepo: roleRepo,
	})
	concernService := service.NewConcernService(service.ConcernDependencies{
		ConcernRepo: concernRepo,
		CommentRepo: commentRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	resolver := auth.NewSessionResolver(authService.TokenManager(), userRepo, roleRepo, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:            handlers.NewAuthHandler(authService),
		Concerns:        handlers.NewConcernsHandler(concernService),
		Admin:           handlers.NewAdminHandler(concernService, roleRepo),
		Stream:          handlers.NewStreamHandler(concernService, bridge, logger),
		SessionResolver: resolver,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
