package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/events"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

type ticketServiceFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	sequences  *fakeSequenceRepo
	history    *fakeHistoryRepo
	creators   *fakeCreatorRepo
	audit      *fakeAuditRecorder
	dispatcher *fakeDispatcher
}

func newTicketServiceFixture(validator PayloadValidator) *ticketServiceFixture {
	f := &ticketServiceFixture{
		tickets:    newFakeTicketRepo(),
		sequences:  newFakeSequenceRepo(),
		history:    &fakeHistoryRepo{},
		creators:   newFakeCreatorRepo(&domain.CreatorAccount{ID: "creator-1", DisplayName: "Ana", Handle: "ana", Active: true}),
		audit:      &fakeAuditRecorder{},
		dispatcher: &fakeDispatcher{},
	}
	f.service = NewTicketService(TicketDependencies{
		Store:            fakeStore{},
		TicketRepo:       f.tickets,
		SequenceRepo:     f.sequences,
		HistoryRepo:      f.history,
		CreatorRepo:      f.creators,
		Audit:            f.audit,
		Dispatcher:       f.dispatcher,
		Logger:           zap.NewNop(),
		PayloadValidator: validator,
	})
	return f
}

func (f *ticketServiceFixture) seedTicket(status domain.TicketStatus) *domain.Ticket {
	ticket := &domain.Ticket{
		Number:     "BRD-2026-00042",
		Type:       domain.TicketTypeBrandDeal,
		Status:     status,
		Priority:   domain.TicketPriorityMedium,
		Title:      "Sponsor integration",
		TicketData: map[string]any{"brand": "Acme"},
		CreatorID:  "creator-1",
		OpenedByID: "user-opener",
	}
	return f.tickets.add(ticket)
}

func TestCreateTicketAllocatesSequentialNumbers(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ctx := context.Background()
	year := time.Now().Year()

	first, err := f.service.CreateTicket(ctx, TicketCreateInput{
		Type:       domain.TicketTypeBrandDeal,
		Title:      "First deal",
		CreatorID:  "creator-1",
		OpenedByID: "user-1",
	})
	require.NoError(t, err)
	second, err := f.service.CreateTicket(ctx, TicketCreateInput{
		Type:       domain.TicketTypeBrandDeal,
		Title:      "Second deal",
		CreatorID:  "creator-1",
		OpenedByID: "user-1",
	})
	require.NoError(t, err)
	other, err := f.service.CreateTicket(ctx, TicketCreateInput{
		Type:       domain.TicketTypeContentReview,
		Title:      "Video review",
		CreatorID:  "creator-1",
		OpenedByID: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("BRD-%d-00001", year), first.Number)
	assert.Equal(t, fmt.Sprintf("BRD-%d-00002", year), second.Number)
	// each type draws from its own counter
	assert.Equal(t, fmt.Sprintf("CNT-%d-00001", year), other.Number)

	assert.Equal(t, domain.TicketStatusDraft, first.Status)
	assert.Equal(t, domain.TicketPriorityMedium, first.Priority)
	assert.NotEmpty(t, first.ID)
}

func TestCreateTicketPublishesEventAndAudit(t *testing.T) {
	f := newTicketServiceFixture(nil)

	ticket, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		Type:       domain.TicketTypeTechIssue,
		Priority:   domain.TicketPriorityHigh,
		Title:      "Upload pipeline broken",
		CreatorID:  "creator-1",
		OpenedByID: "user-1",
	})
	require.NoError(t, err)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, domain.AuditActionTicketCreated, f.audit.entries[0].Action)
	assert.Equal(t, ticket.Number, f.audit.entries[0].EntityID)

	require.Len(t, f.dispatcher.published, 1)
	event := f.dispatcher.published[0]
	assert.Equal(t, events.EventTicketCreated, event.Type)
	assert.Equal(t, ticket.ID, event.TicketID)
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, "user-1", payload.OpenedByID)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input TicketCreateInput
		code  string
	}{
		{
			name:  "unknown type",
			input: TicketCreateInput{Type: "FAN_MAIL", Title: "x", CreatorID: "creator-1"},
			code:  "VALIDATION_FAILED",
		},
		{
			name:  "blank title",
			input: TicketCreateInput{Type: domain.TicketTypeBrandDeal, Title: "   ", CreatorID: "creator-1"},
			code:  "VALIDATION_FAILED",
		},
		{
			name:  "unknown priority",
			input: TicketCreateInput{Type: domain.TicketTypeBrandDeal, Priority: "CRITICAL", Title: "x", CreatorID: "creator-1"},
			code:  "VALIDATION_FAILED",
		},
		{
			name:  "unknown creator",
			input: TicketCreateInput{Type: domain.TicketTypeBrandDeal, Title: "x", CreatorID: "nope"},
			code:  "NOT_FOUND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateTicket(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
		})
	}
	assert.Empty(t, f.tickets.tickets)
	assert.Empty(t, f.dispatcher.published)
}

func TestCreateTicketInactiveCreator(t *testing.T) {
	f := newTicketServiceFixture(nil)
	f.creators.creators["creator-2"] = &domain.CreatorAccount{ID: "creator-2", Handle: "bee", Active: false}

	_, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		Type:       domain.TicketTypeBrandDeal,
		Title:      "Deal",
		CreatorID:  "creator-2",
		OpenedByID: "user-1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PRECONDITION_FAILED"))
}

func TestCreateTicketPayloadValidator(t *testing.T) {
	validator := func(ticketType domain.TicketType, data map[string]any) error {
		if _, ok := data["brand"]; !ok {
			return errors.New("brand is required for brand deals")
		}
		return nil
	}
	f := newTicketServiceFixture(validator)

	_, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		Type:       domain.TicketTypeBrandDeal,
		Title:      "Deal",
		TicketData: map[string]any{"budget": 1000},
		CreatorID:  "creator-1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.service.CreateTicket(context.Background(), TicketCreateInput{
		Type:       domain.TicketTypeBrandDeal,
		Title:      "Deal",
		TicketData: map[string]any{"brand": "Acme"},
		CreatorID:  "creator-1",
	})
	assert.NoError(t, err)
}

func TestTransitionWritesExactlyOneHistoryEntry(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusDraft)

	updated, err := f.service.Transition(context.Background(), ticket.ID, domain.TicketStatusSubmitted, "user-agent", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusSubmitted, updated.Status)
	require.NotNil(t, updated.SubmittedAt)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, ticket.ID, entry.TicketID)
	assert.Equal(t, domain.TicketStatusDraft, entry.PreviousStatus)
	assert.Equal(t, domain.TicketStatusSubmitted, entry.NewStatus)
	assert.Equal(t, "user-agent", entry.ChangedByID)
	assert.Equal(t, "status changed to SUBMITTED", entry.Reason)
	assert.Equal(t, map[string]any{"brand": "Acme"}, entry.PreviousData)
	assert.Equal(t, map[string]any{"brand": "Acme"}, entry.NewData)
}

func TestTransitionIllegalLeavesTicketUntouched(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusDraft)

	_, err := f.service.Transition(context.Background(), ticket.ID, domain.TicketStatusCompleted, "user-agent", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "ILLEGAL_TRANSITION"))

	stored, getErr := f.tickets.GetByID(context.Background(), nil, ticket.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TicketStatusDraft, stored.Status)
	assert.Empty(t, f.history.entries)
	assert.Empty(t, f.dispatcher.published)
	assert.Empty(t, f.audit.entries)
}

func TestTransitionUnknownTarget(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusDraft)

	_, err := f.service.Transition(context.Background(), ticket.ID, "ARCHIVED", "user-agent", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestRejectRequiresReason(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusSubmitted)

	_, err := f.service.Reject(context.Background(), ticket.ID, "user-manager", "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PRECONDITION_FAILED"))
	assert.Empty(t, f.history.entries)

	updated, err := f.service.Reject(context.Background(), ticket.ID, "user-manager", "  budget out of policy ")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRejected, updated.Status)
	require.NotNil(t, updated.RejectionReason)
	assert.Equal(t, "budget out of policy", *updated.RejectionReason)
	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "budget out of policy", f.history.entries[0].Reason)
}

func TestSubmittedAtStampedOnlyOnce(t *testing.T) {
	f := newTicketServiceFixture(nil)
	earlier := time.Now().Add(-48 * time.Hour)
	ticket := f.seedTicket(domain.TicketStatusDraft)
	ticket.SubmittedAt = &earlier
	f.tickets.add(ticket)

	updated, err := f.service.Submit(context.Background(), ticket.ID, "user-agent")
	require.NoError(t, err)
	require.NotNil(t, updated.SubmittedAt)
	assert.True(t, updated.SubmittedAt.Equal(earlier))
}

func TestCompleteStampsCompletedAt(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	updated, err := f.service.Complete(context.Background(), ticket.ID, "user-agent")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.WithinDuration(t, time.Now(), *updated.CompletedAt, time.Minute)
}

func TestFullLifecycleHistoryChain(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusDraft)
	ctx := context.Background()

	path := []domain.TicketStatus{
		domain.TicketStatusSubmitted,
		domain.TicketStatusPendingReview,
		domain.TicketStatusAccepted,
		domain.TicketStatusInProgress,
		domain.TicketStatusCompleted,
	}
	for _, next := range path {
		_, err := f.service.Transition(ctx, ticket.ID, next, "user-agent", "")
		require.NoError(t, err, "to %s", next)
	}

	require.Len(t, f.history.entries, len(path))
	previous := domain.TicketStatusDraft
	for i, next := range path {
		assert.Equal(t, previous, f.history.entries[i].PreviousStatus)
		assert.Equal(t, next, f.history.entries[i].NewStatus)
		previous = next
	}

	// terminal: nothing further is allowed
	_, err := f.service.Cancel(ctx, ticket.ID, "user-agent", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "ILLEGAL_TRANSITION"))
}

func TestReworkLoopBackToReview(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	updated, err := f.service.SendToReview(context.Background(), ticket.ID, "user-agent")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPendingReview, updated.Status)
}

func TestTransitionNotFound(t *testing.T) {
	f := newTicketServiceFixture(nil)

	_, err := f.service.Submit(context.Background(), "missing", "user-agent")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUpdateTicketNoOpWritesNothing(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusDraft)

	sameTitle := ticket.Title
	updated, err := f.service.UpdateTicket(context.Background(), ticket.ID, "user-agent", TicketUpdateInput{
		Title: &sameTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, ticket.Title, updated.Title)
	assert.Zero(t, f.tickets.updates)
	assert.Empty(t, f.history.entries)
	assert.Empty(t, f.audit.entries)
}

func TestUpdateTicketRecordsChangedFields(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusSubmitted)

	newTitle := "Sponsor integration v2"
	newPriority := domain.TicketPriorityUrgent
	updated, err := f.service.UpdateTicket(context.Background(), ticket.ID, "user-agent", TicketUpdateInput{
		Title:    &newTitle,
		Priority: &newPriority,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, newPriority, updated.Priority)
	// status untouched by field edits
	assert.Equal(t, domain.TicketStatusSubmitted, updated.Status)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, entry.PreviousStatus, entry.NewStatus)
	assert.Equal(t, "updated title, priority", entry.Reason)
}

func TestUpdateTicketDataSnapshots(t *testing.T) {
	f := newTicketServiceFixture(nil)
	ticket := f.seedTicket(domain.TicketStatusDraft)

	updated, err := f.service.UpdateTicket(context.Background(), ticket.ID, "user-agent", TicketUpdateInput{
		TicketData: map[string]any{"brand": "Acme", "budget": 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"brand": "Acme", "budget": 5000}, updated.TicketData)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, map[string]any{"brand": "Acme"}, f.history.entries[0].PreviousData)
	assert.Equal(t, map[string]any{"brand": "Acme", "budget": 5000}, f.history.entries[0].NewData)
}

func TestDeleteTicketDraftOnly(t *testing.T) {
	f := newTicketServiceFixture(nil)
	draft := f.seedTicket(domain.TicketStatusDraft)
	submitted := f.seedTicket(domain.TicketStatusSubmitted)

	err := f.service.DeleteTicket(context.Background(), submitted.ID, "user-agent")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PRECONDITION_FAILED"))
	_, getErr := f.tickets.GetByID(context.Background(), nil, submitted.ID)
	assert.NoError(t, getErr)

	require.NoError(t, f.service.DeleteTicket(context.Background(), draft.ID, "user-agent"))
	_, getErr = f.tickets.GetByID(context.Background(), nil, draft.ID)
	assert.Error(t, getErr)
	// hard delete leaves no history behind
	assert.Empty(t, f.history.entries)
}

func TestEventPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newTicketServiceFixture(nil)
	f.dispatcher.err = errors.New("broker down")
	ticket := f.seedTicket(domain.TicketStatusDraft)

	updated, err := f.service.Submit(context.Background(), ticket.ID, "user-agent")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusSubmitted, updated.Status)
	require.Len(t, f.history.entries, 1)
}

func TestHistoryFailureRollsBackTransition(t *testing.T) {
	f := newTicketServiceFixture(nil)
	f.history.createErr = errors.New("disk full")
	ticket := f.seedTicket(domain.TicketStatusDraft)

	_, err := f.service.Submit(context.Background(), ticket.ID, "user-agent")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERSISTENCE_FAILURE"))
	assert.Empty(t, f.dispatcher.published)
	assert.Empty(t, f.audit.entries)
}

func TestListHistoryUnknownTicket(t *testing.T) {
	f := newTicketServiceFixture(nil)

	_, err := f.service.ListHistory(context.Background(), "missing", 50, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
