package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-knowledge-service/internal/cache"
	"github.com/spec-kit/ticket-knowledge-service/internal/vectorstore"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	store       vectorstore.VectorStore
	searchCache *cache.SearchCache
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, store vectorstore.VectorStore, searchCache *cache.SearchCache) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, store: store, searchCache: searchCache}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies. The cache is
// optional; only the vector store gates readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.store.Ping(ctx); err != nil {
		depStatus["vector_store"] = err.Error()
		ready = false
	} else {
		depStatus["vector_store"] = "ok"
	}

	if h.searchCache != nil {
		if err := h.searchCache.Ping(ctx); err != nil {
			depStatus["redis"] = err.Error()
		} else {
			depStatus["redis"] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
