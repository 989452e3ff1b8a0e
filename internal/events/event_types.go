package events

import (
	"time"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketStatusChange EventType = "ticket_status_changed"
	EventTicketAssigned     EventType = "ticket_assigned"
	EventTicketUnassigned   EventType = "ticket_unassigned"
	EventCommentAdded       EventType = "ticket_comment_added"
)

// Event represents a domain event emitted by services strictly after the
// triggering transaction has committed.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	TicketID     string    `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	ActorID      string    `json:"actor_id"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketType domain.TicketType     `json:"ticket_type"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
	CreatorID  string                `json:"creator_id"`
	OpenedByID string                `json:"opened_by_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	PreviousStatus domain.TicketStatus `json:"previous_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	Reason         string              `json:"reason,omitempty"`
	CreatorID      string              `json:"creator_id"`
	OpenedByID     string              `json:"opened_by_id"`
	AssignedToID   *string             `json:"assigned_to_id,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedToID       *string `json:"assigned_to_id,omitempty"`
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID    string  `json:"comment_id"`
	AuthorID     string  `json:"author_id"`
	IsInternal   bool    `json:"is_internal"`
	CreatorID    string  `json:"creator_id"`
	OpenedByID   string  `json:"opened_by_id"`
	AssignedToID *string `json:"assigned_to_id,omitempty"`
	BodyPreview  string  `json:"body_preview"`
}
