package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := map[TicketStatus][]TicketStatus{
		TicketStatusDraft:         {TicketStatusSubmitted, TicketStatusCancelled},
		TicketStatusSubmitted:     {TicketStatusPendingReview, TicketStatusRejected, TicketStatusCancelled},
		TicketStatusPendingReview: {TicketStatusAccepted, TicketStatusRejected, TicketStatusCancelled},
		TicketStatusAccepted:      {TicketStatusInProgress, TicketStatusRejected, TicketStatusCancelled},
		TicketStatusInProgress:    {TicketStatusCompleted, TicketStatusPendingReview, TicketStatusCancelled},
		TicketStatusCompleted:     {},
		TicketStatusRejected:      {},
		TicketStatusCancelled:     {},
	}

	// exhaustive over every ordered pair
	for _, from := range TicketStatuses() {
		for _, to := range TicketStatuses() {
			want := false
			for _, candidate := range legal[from] {
				if candidate == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("ARCHIVED", TicketStatusDraft))
	assert.False(t, CanTransition(TicketStatusDraft, "ARCHIVED"))
}

func TestSelfTransitionNeverAllowed(t *testing.T) {
	for _, status := range TicketStatuses() {
		assert.False(t, CanTransition(status, status), "%s -> itself", status)
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[TicketStatus]bool{
		TicketStatusCompleted: true,
		TicketStatusRejected:  true,
		TicketStatusCancelled: true,
	}
	for _, status := range TicketStatuses() {
		assert.Equal(t, terminal[status], status.IsTerminal(), "%s", status)
	}
	assert.False(t, TicketStatus("ARCHIVED").IsTerminal())
}

func TestStatusIsValid(t *testing.T) {
	for _, status := range TicketStatuses() {
		assert.True(t, status.IsValid(), "%s", status)
	}
	assert.False(t, TicketStatus("").IsValid())
	assert.False(t, TicketStatus("draft").IsValid())
}
