package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httptransport "github.com/RaythaHQ/ticket-system-sub001/internal/api/http"
	"github.com/RaythaHQ/ticket-system-sub001/internal/api/http/handlers"
	"github.com/RaythaHQ/ticket-system-sub001/internal/auth"
	"github.com/RaythaHQ/ticket-system-sub001/internal/config"
	"github.com/RaythaHQ/ticket-system-sub001/internal/events"
	"github.com/RaythaHQ/ticket-system-sub001/internal/observability"
	"github.com/RaythaHQ/ticket-system-sub001/internal/persistence"
	"github.com/RaythaHQ/ticket-system-sub001/internal/repository"
	"github.com/RaythaHQ/ticket-system-sub001/internal/service"
	"github.com/RaythaHQ/ticket-system-sub001/internal/sla"
	"github.com/RaythaHQ/ticket-system-sub001/internal/worker"
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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	ruleRepo := repository.NewSlaRuleRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewScanMetrics()
	clock := sla.SystemClock{}

	engine := sla.NewDueDateEngine(ruleRepo, clock, logger)
	stateMachine := sla.NewComplianceStateMachine(clock, sla.ApproachingPolicy{
		LeadMinutes: cfg.Sla.ApproachingLeadMinutes,
		LeadPercent: cfg.Sla.ApproachingLeadPercent,
	})
	guard := sla.NewExtensionGuard(clock, sla.StaffPermissionChecker{})

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		HistoryRepo:      historyRepo,
		OrganizationRepo: orgRepo,
		Engine:           engine,
		StateMachine:     stateMachine,
		Clock:            clock,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	slaService := service.NewSlaService(service.SlaDependencies{
		TicketRepo:       ticketRepo,
		RuleRepo:         ruleRepo,
		OrganizationRepo: orgRepo,
		HistoryRepo:      historyRepo,
		Engine:           engine,
		Guard:            guard,
		Clock:            clock,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	authService := service.NewAuthService(*cfg, staffRepo)

	notificationService := service.NewNotificationService(dispatcher, ruleRepo, ticketRepo, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	scanLock := persistence.NewScanLock(redis.Client, "sla:breach-scan", uuid.NewString(), cfg.Sla.ScanLockTTL())
	scanner := worker.NewBreachScanner(worker.BreachScannerDeps{
		TicketRepo: ticketRepo,
		Machine:    stateMachine,
		Lock:       scanLock,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Interval:   cfg.Sla.ScanInterval(),
		BatchSize:  cfg.Sla.ScanBatchSize,
	})
	scanner.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, slaService),
		SlaRules:       handlers.NewSlaRulesHandler(slaService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	scanner.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
