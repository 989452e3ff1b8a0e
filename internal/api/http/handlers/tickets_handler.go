package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/ticketflow/internal/api/dto"
	"github.com/creatorhub/ticketflow/internal/auth"
	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/observability"
	"github.com/creatorhub/ticketflow/internal/repository"
	"github.com/creatorhub/ticketflow/internal/service"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

// TicketsHandler exposes ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
	metrics     *observability.Metrics
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService, metrics *observability.Metrics) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignments: assignments, metrics: metrics}
}

func (h *TicketsHandler) record(operation string, err error) {
	h.metrics.RecordOperation(operation, err == nil)
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CreatorID == "" || req.Title == "" {
		return apperrors.NewValidationError("creator_id and title required", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Type:        req.Type,
		Priority:    req.Priority,
		Title:       req.Title,
		Description: req.Description,
		TicketData:  req.TicketData,
		Deadline:    req.Deadline,
		CreatorID:   req.CreatorID,
		OpenedByID:  principal.User.ID,
	})
	h.record("ticket.create", err)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	if !auth.Can(principal.User.Role, auth.CapTicketRead) {
		// creators only see what they opened
		id := principal.User.ID
		filter.OpenedByID = &id
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.checkReadScope(c, ticket); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetTicketByNumber GET /tickets/number/:number.
func (h *TicketsHandler) GetTicketByNumber(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicketByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	if err := h.checkReadScope(c, ticket); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), c.Params("id"), principal.User.ID, service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		TicketData:  req.TicketData,
	})
	h.record("ticket.update", err)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id. Only draft tickets are deletable.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	err := h.tickets.DeleteTicket(c.UserContext(), c.Params("id"), principal.User.ID)
	h.record("ticket.delete", err)
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Transition POST /tickets/:id/transition.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Transition(c.UserContext(), c.Params("id"), req.Status, principal.User.ID, req.Reason)
	h.record("ticket.transition", err)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// transitionTo builds a handler for the fixed-target wrapper routes.
func (h *TicketsHandler) transitionTo(target domain.TicketStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		var req dto.ReasonRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return apperrors.NewValidationError("invalid payload", nil)
			}
		}
		ticket, err := h.tickets.Transition(c.UserContext(), c.Params("id"), target, principal.User.ID, req.Reason)
		h.record("ticket.transition", err)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
	}
}

// Submit POST /tickets/:id/submit.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	return h.transitionTo(domain.TicketStatusSubmitted)(c)
}

// SendToReview POST /tickets/:id/review.
func (h *TicketsHandler) SendToReview(c *fiber.Ctx) error {
	return h.transitionTo(domain.TicketStatusPendingReview)(c)
}

// Accept POST /tickets/:id/accept.
func (h *TicketsHandler) Accept(c *fiber.Ctx) error {
	return h.transitionTo(domain.TicketStatusAccepted)(c)
}

// Reject POST /tickets/:id/reject.
func (h *TicketsHandler) Reject(c *fiber.Ctx) error {
	return h.transitionTo(domain.TicketStatusRejected)(c)
}

// StartProgress POST /tickets/:id/start.
func (h *TicketsHandler) StartProgress(c *fiber.Ctx) error {
	return h.transitionTo(domain.TicketStatusInProgress)(c)
}

// Complete POST /tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	return h.transitionTo(domain.TicketStatusCompleted)(c)
}

// Cancel POST /tickets/:id/cancel.
func (h *TicketsHandler) Cancel(c *fiber.Ctx) error {
	return h.transitionTo(domain.TicketStatusCancelled)(c)
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}
	if req.AssigneeID == principal.User.ID {
		if !auth.Can(principal.User.Role, auth.CapAssignSelf) {
			return apperrors.NewForbidden("insufficient permissions")
		}
	} else if !auth.Can(principal.User.Role, auth.CapAssign) {
		return apperrors.NewForbidden("insufficient permissions")
	}
	ticket, err := h.assignments.Assign(c.UserContext(), c.Params("id"), req.AssigneeID, principal.User.ID)
	h.record("ticket.assign", err)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Unassign POST /tickets/:id/unassign.
func (h *TicketsHandler) Unassign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.assignments.Unassign(c.UserContext(), c.Params("id"), principal.User.ID)
	h.record("ticket.unassign", err)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	limit := parseInt(c.Query("page_size"), 50)
	page := parseInt(c.Query("page"), 1)
	entries, err := h.tickets.ListHistory(c.UserContext(), c.Params("id"), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.TicketHistoryResponse{
			ID:             entry.ID,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			PreviousData:   entry.PreviousData,
			NewData:        entry.NewData,
			ChangedByID:    entry.ChangedByID,
			Reason:         entry.Reason,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *TicketsHandler) checkReadScope(c *fiber.Ctx, ticket *domain.Ticket) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if auth.Can(principal.User.Role, auth.CapTicketRead) {
		return nil
	}
	if ticket.OpenedByID == principal.User.ID {
		return nil
	}
	return apperrors.NewForbidden("access denied")
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if typeStr := c.Query("type"); typeStr != "" {
		for _, part := range strings.Split(typeStr, ",") {
			filter.Types = append(filter.Types, domain.TicketType(strings.TrimSpace(part)))
		}
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if v := c.Query("creator_id"); v != "" {
		filter.CreatorID = &v
	}
	if v := c.Query("opened_by_id"); v != "" {
		filter.OpenedByID = &v
	}
	if v := c.Query("assigned_to_id"); v != "" {
		filter.AssignedToID = &v
	}
	if v := c.Query("search"); v != "" {
		filter.SearchTerm = &v
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	if from := parseTime(c.Query("submitted_from")); from != nil {
		filter.SubmittedFrom = from
	}
	if to := parseTime(c.Query("submitted_to")); to != nil {
		filter.SubmittedTo = to
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortDesc = c.Query("sort_dir") != "asc"
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              ticket.ID,
		Number:          ticket.Number,
		Type:            ticket.Type,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		Title:           ticket.Title,
		Description:     ticket.Description,
		TicketData:      ticket.TicketData,
		Deadline:        ticket.Deadline,
		RejectionReason: ticket.RejectionReason,
		CreatorID:       ticket.CreatorID,
		OpenedByID:      ticket.OpenedByID,
		AssignedToID:    ticket.AssignedToID,
		SubmittedAt:     ticket.SubmittedAt,
		CompletedAt:     ticket.CompletedAt,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}
