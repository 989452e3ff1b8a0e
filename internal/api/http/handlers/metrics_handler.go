package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/ticketflow/internal/observability"
)

// MetricsHandler exposes the in-memory counters.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot GET /metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	requests, errors, operations := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"data": fiber.Map{
		"requests":   requests,
		"errors":     errors,
		"operations": operations,
	}})
}
