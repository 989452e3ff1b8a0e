package dto

import (
	"time"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Type        domain.TicketType     `json:"type"`
	Priority    domain.TicketPriority `json:"priority"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	TicketData  map[string]any        `json:"ticket_data"`
	Deadline    *time.Time            `json:"deadline"`
	CreatorID   string                `json:"creator_id"`
}

// UpdateTicketRequest carries non-status field edits; nil means unchanged.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	Deadline    *time.Time             `json:"deadline"`
	TicketData  map[string]any         `json:"ticket_data"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status"`
	Reason string              `json:"reason"`
}

// ReasonRequest carries the optional or required reason for a wrapper
// transition such as reject or cancel.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID              string                `json:"id"`
	Number          string                `json:"number"`
	Type            domain.TicketType     `json:"type"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	TicketData      map[string]any        `json:"ticket_data"`
	Deadline        *time.Time            `json:"deadline"`
	RejectionReason *string               `json:"rejection_reason"`
	CreatorID       string                `json:"creator_id"`
	OpenedByID      string                `json:"opened_by_id"`
	AssignedToID    *string               `json:"assigned_to_id"`
	SubmittedAt     *time.Time            `json:"submitted_at"`
	CompletedAt     *time.Time            `json:"completed_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketHistoryResponse represents one history entry.
type TicketHistoryResponse struct {
	ID             string              `json:"id"`
	PreviousStatus domain.TicketStatus `json:"previous_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	PreviousData   map[string]any      `json:"previous_data"`
	NewData        map[string]any      `json:"new_data"`
	ChangedByID    string              `json:"changed_by_id"`
	Reason         string              `json:"reason"`
	CreatedAt      time.Time           `json:"created_at"`
}
