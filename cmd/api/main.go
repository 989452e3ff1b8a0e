package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/creatorhub/ticketflow/internal/api/http"
	"github.com/creatorhub/ticketflow/internal/api/http/handlers"
	"github.com/creatorhub/ticketflow/internal/auth"
	"github.com/creatorhub/ticketflow/internal/config"
	"github.com/creatorhub/ticketflow/internal/events"
	"github.com/creatorhub/ticketflow/internal/observability"
	"github.com/creatorhub/ticketflow/internal/persistence"
	"github.com/creatorhub/ticketflow/internal/repository"
	"github.com/creatorhub/ticketflow/internal/service"
	"github.com/creatorhub/ticketflow/internal/worker"
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

	store := repository.NewStore(pg.PoolHandle())
	ticketRepo := repository.NewTicketRepository()
	sequenceRepo := repository.NewTicketSequenceRepository()
	historyRepo := repository.NewTicketHistoryRepository()
	commentRepo := repository.NewCommentRepository()
	auditRepo := repository.NewAuditRepository()
	userRepo := repository.NewUserRepository()
	creatorRepo := repository.NewCreatorRepository()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(store, auditRepo, logger)
	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:        store,
		TicketRepo:   ticketRepo,
		SequenceRepo: sequenceRepo,
		HistoryRepo:  historyRepo,
		CreatorRepo:  creatorRepo,
		Audit:        auditService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Store:       store,
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		HistoryRepo: historyRepo,
		Audit:       auditService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		Store:       store,
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		Audit:       auditService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	authService := service.NewAuthService(cfg.Auth, store, userRepo, auditService, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store, userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, metrics),
		Comments:       handlers.NewCommentsHandler(commentService),
		Audit:          handlers.NewAuditHandler(auditService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
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
