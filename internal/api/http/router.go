package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-knowledge-service/internal/api/http/handlers"
	"github.com/spec-kit/ticket-knowledge-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Tickets      *handlers.TicketsHandler
	TokenManager *auth.TokenManager
}

// RegisterRoutes wires HTTP routes. The tool routes mirror the MCP tool
// names of the upstream agent integration.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tools := app.Group("/tools", auth.ServiceTokenMiddleware(cfg.TokenManager))
	tools.Post("/insert_tickets", cfg.Tickets.InsertTickets)
	tools.Post("/similarity_search", cfg.Tickets.SimilaritySearch)
}
