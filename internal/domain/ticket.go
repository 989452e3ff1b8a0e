package domain

import "time"

// TicketType enumerates the fixed work-request categories.
type TicketType string

const (
	TicketTypeBrandDeal      TicketType = "BRAND_DEAL"
	TicketTypeContentReview  TicketType = "CONTENT_REVIEW"
	TicketTypeAccountSupport TicketType = "ACCOUNT_SUPPORT"
	TicketTypePayoutIssue    TicketType = "PAYOUT_ISSUE"
	TicketTypeTechIssue      TicketType = "TECH_ISSUE"
)

// ticketTypePrefixes maps each category to its ticket-number prefix.
var ticketTypePrefixes = map[TicketType]string{
	TicketTypeBrandDeal:      "BRD",
	TicketTypeContentReview:  "CNT",
	TicketTypeAccountSupport: "ACC",
	TicketTypePayoutIssue:    "PAY",
	TicketTypeTechIssue:      "TEC",
}

// NumberPrefix returns the 3-letter prefix used in human-readable ticket
// numbers, e.g. BRD-2026-00001.
func (t TicketType) NumberPrefix() string {
	return ticketTypePrefixes[t]
}

// IsValid reports whether the type is one of the fixed categories.
func (t TicketType) IsValid() bool {
	_, ok := ticketTypePrefixes[t]
	return ok
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// IsValid reports whether the priority is one of the four levels.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for agency work requests raised on behalf of
// creator accounts. TicketData is an opaque type-specific document; the
// engine snapshots it into history but never inspects its contents.
type Ticket struct {
	ID              string
	Number          string
	Type            TicketType
	Status          TicketStatus
	Priority        TicketPriority
	Title           string
	Description     string
	TicketData      map[string]any
	Deadline        *time.Time
	RejectionReason *string
	CreatorID       string
	OpenedByID      string
	AssignedToID    *string
	SubmittedAt     *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
