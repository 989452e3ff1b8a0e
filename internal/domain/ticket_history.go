package domain

import "time"

// TicketHistory is an immutable record of one ticket mutation. Exactly one
// entry commits in the same transaction as every ticket row change; the
// statuses are equal for non-status mutations such as field edits and
// assignment changes.
type TicketHistory struct {
	ID             string
	TicketID       string
	PreviousStatus TicketStatus
	NewStatus      TicketStatus
	PreviousData   map[string]any
	NewData        map[string]any
	ChangedByID    string
	Reason         string
	CreatedAt      time.Time
}
