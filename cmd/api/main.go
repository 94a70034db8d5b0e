package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	"github.com/spec-kit/helpdesk-service/internal/worker"
	"github.com/spec-kit/helpdesk-service/internal/workload"
)

const tokenTTLMinutes = 60

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		store = repository.NewStore(pool)
	} else {
		logger.Warn("no postgres pool; serving from an in-memory store")
		store = memstore.New()
	}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	calculator := sla.NewCalculator()
	tracker := workload.NewTracker()

	notifications := service.NewNotificationService(dispatcher, redis, logger, cfg.Notification)
	worker.NewNotificationWorker(notifications, redis, cfg.Notification.RedisChannel, nil, logger).Start(ctx)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Calculator: calculator,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	transitionService := service.NewTransitionService(service.TransitionDependencies{
		Store:      store,
		Machine:    lifecycle.NewMachine(),
		Tracker:    tracker,
		Calculator: calculator,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Store:      store,
		Scorer:     service.NewScorer(calculator, cfg.Autotriage),
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Locker:     redis,
		LockTTL:    cfg.Autotriage.LockTTL(),
		Metrics:    metrics,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, tokenTTLMinutes)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, transitionService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
