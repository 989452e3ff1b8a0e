package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusDraft         TicketStatus = "DRAFT"
	TicketStatusSubmitted     TicketStatus = "SUBMITTED"
	TicketStatusPendingReview TicketStatus = "PENDING_REVIEW"
	TicketStatusAccepted      TicketStatus = "ACCEPTED"
	TicketStatusInProgress    TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted     TicketStatus = "COMPLETED"
	TicketStatusRejected      TicketStatus = "REJECTED"
	TicketStatusCancelled     TicketStatus = "CANCELLED"
)

// allowedTransitions is the fixed edge table of the ticket workflow.
// Terminal states carry no outgoing edges.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusDraft:         {TicketStatusSubmitted, TicketStatusCancelled},
	TicketStatusSubmitted:     {TicketStatusPendingReview, TicketStatusRejected, TicketStatusCancelled},
	TicketStatusPendingReview: {TicketStatusAccepted, TicketStatusRejected, TicketStatusCancelled},
	TicketStatusAccepted:      {TicketStatusInProgress, TicketStatusRejected, TicketStatusCancelled},
	TicketStatusInProgress:    {TicketStatusCompleted, TicketStatusPendingReview, TicketStatusCancelled},
	TicketStatusCompleted:     {},
	TicketStatusRejected:      {},
	TicketStatusCancelled:     {},
}

// CanTransition reports whether the workflow permits moving a ticket from one
// status to another. Pure lookup over the fixed table; business rules layered
// on top of graph legality (such as the rejection-reason requirement) live in
// the ticket service.
func CanTransition(from, to TicketStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s TicketStatus) IsTerminal() bool {
	edges, ok := allowedTransitions[s]
	return ok && len(edges) == 0
}

// IsValid reports whether the status is one of the known workflow states.
func (s TicketStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// TicketStatuses lists every known workflow state.
func TicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusDraft,
		TicketStatusSubmitted,
		TicketStatusPendingReview,
		TicketStatusAccepted,
		TicketStatusInProgress,
		TicketStatusCompleted,
		TicketStatusRejected,
		TicketStatusCancelled,
	}
}
