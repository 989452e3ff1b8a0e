package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketTypePrefixes(t *testing.T) {
	tests := []struct {
		ticketType TicketType
		prefix     string
	}{
		{TicketTypeBrandDeal, "BRD"},
		{TicketTypeContentReview, "CNT"},
		{TicketTypeAccountSupport, "ACC"},
		{TicketTypePayoutIssue, "PAY"},
		{TicketTypeTechIssue, "TEC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.prefix, tt.ticketType.NumberPrefix())
		assert.True(t, tt.ticketType.IsValid())
	}
	assert.False(t, TicketType("FAN_MAIL").IsValid())
	assert.Empty(t, TicketType("FAN_MAIL").NumberPrefix())
}

func TestTicketPriorityIsValid(t *testing.T) {
	for _, p := range []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent} {
		assert.True(t, p.IsValid())
	}
	assert.False(t, TicketPriority("").IsValid())
	assert.False(t, TicketPriority("CRITICAL").IsValid())
}
