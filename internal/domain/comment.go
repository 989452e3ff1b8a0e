package domain

import "time"

// Comment is a collaborative note on a ticket. Internal comments are visible
// to staff only; the visibility rule is applied by callers and the
// notification dispatcher, not stored-side.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Content    string
	IsInternal bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
