package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/ticketflow/internal/api/dto"
	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/service"
)

// AuditHandler exposes read access to the audit trail.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List GET /audit.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := domain.AuditFilter{}
	if v := c.Query("action"); v != "" {
		action := domain.AuditAction(v)
		filter.Action = &action
	}
	if v := c.Query("entity_type"); v != "" {
		filter.EntityType = &v
	}
	if v := c.Query("entity_id"); v != "" {
		filter.EntityID = &v
	}
	if v := c.Query("actor_id"); v != "" {
		filter.ActorID = &v
	}
	if from := parseTime(c.Query("from")); from != nil {
		filter.From = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		filter.To = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	entries, err := h.audit.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:         entry.ID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			ActorID:    entry.ActorID,
			ActorLabel: entry.ActorLabel,
			IPAddress:  entry.IPAddress,
			UserAgent:  entry.UserAgent,
			Details:    entry.Details,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
