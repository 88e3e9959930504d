package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/api/http/handlers"
	"github.com/spec-kit/ticket-knowledge-service/internal/auth"
	"github.com/spec-kit/ticket-knowledge-service/internal/cache"
	"github.com/spec-kit/ticket-knowledge-service/internal/config"
	"github.com/spec-kit/ticket-knowledge-service/internal/events"
	"github.com/spec-kit/ticket-knowledge-service/internal/observability"
	"github.com/spec-kit/ticket-knowledge-service/internal/repository"
	"github.com/spec-kit/ticket-knowledge-service/internal/service"
	"github.com/spec-kit/ticket-knowledge-service/internal/vectorstore"
	"github.com/spec-kit/ticket-knowledge-service/internal/worker"

	httptransport "github.com/spec-kit/ticket-knowledge-service/internal/api/http"
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

	store := vectorstore.NewQdrant(cfg.Qdrant, logger)
	searchCache := cache.NewSearchCache(cfg.Redis, cfg.Cache.TTL(), logger)
	defer searchCache.Close()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartCacheWorker(dispatcher, searchCache, logger)

	ticketRepo := repository.NewTicketRepository(store, logger)
	ticketService := service.NewTicketService(cfg.Similarity, service.TicketDependencies{
		TicketRepo:  ticketRepo,
		SearchCache: searchCache,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.ServiceTokenSecret, cfg.Auth.TokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, searchCache)
	ticketsHandler := handlers.NewTicketsHandler(ticketService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       healthHandler,
		Tickets:      ticketsHandler,
		TokenManager: tokenManager,
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
