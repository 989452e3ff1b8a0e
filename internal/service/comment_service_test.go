package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/events"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

type commentFixture struct {
	service    *CommentService
	tickets    *fakeTicketRepo
	comments   *fakeCommentRepo
	audit      *fakeAuditRecorder
	dispatcher *fakeDispatcher
}

func newCommentFixture() *commentFixture {
	f := &commentFixture{
		tickets:    newFakeTicketRepo(),
		comments:   &fakeCommentRepo{},
		audit:      &fakeAuditRecorder{},
		dispatcher: &fakeDispatcher{},
	}
	f.service = NewCommentService(CommentDependencies{
		Store:       fakeStore{},
		TicketRepo:  f.tickets,
		CommentRepo: f.comments,
		Audit:       f.audit,
		Dispatcher:  f.dispatcher,
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *commentFixture) seedTicket() *domain.Ticket {
	return f.tickets.add(&domain.Ticket{
		Number:     "PAY-2026-00003",
		Type:       domain.TicketTypePayoutIssue,
		Status:     domain.TicketStatusInProgress,
		Priority:   domain.TicketPriorityUrgent,
		Title:      "Missing July payout",
		TicketData: map[string]any{},
		CreatorID:  "creator-1",
		OpenedByID: "user-opener",
	})
}

func TestAddCommentTouchesTicket(t *testing.T) {
	f := newCommentFixture()
	ticket := f.seedTicket()

	comment, err := f.service.AddComment(context.Background(), ticket.ID, "agent-1", "  checking with finance  ", false)
	require.NoError(t, err)
	assert.Equal(t, "checking with finance", comment.Content)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, []string{ticket.ID}, f.tickets.touched)

	require.Len(t, f.dispatcher.published, 1)
	event := f.dispatcher.published[0]
	assert.Equal(t, events.EventCommentAdded, event.Type)
	payload, ok := event.Payload.(events.CommentAddedPayload)
	require.True(t, ok)
	assert.Equal(t, comment.ID, payload.CommentID)
	assert.False(t, payload.IsInternal)
}

func TestAddCommentBlankContent(t *testing.T) {
	f := newCommentFixture()
	ticket := f.seedTicket()

	_, err := f.service.AddComment(context.Background(), ticket.ID, "agent-1", "   ", false)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Empty(t, f.comments.comments)
}

func TestAddCommentUnknownTicket(t *testing.T) {
	f := newCommentFixture()

	_, err := f.service.AddComment(context.Background(), "missing", "agent-1", "hello", false)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestAddCommentPreviewTruncated(t *testing.T) {
	f := newCommentFixture()
	ticket := f.seedTicket()
	long := strings.Repeat("a", 400)

	_, err := f.service.AddComment(context.Background(), ticket.ID, "agent-1", long, true)
	require.NoError(t, err)
	payload := f.dispatcher.published[0].Payload.(events.CommentAddedPayload)
	assert.Len(t, payload.BodyPreview, 120)
	assert.True(t, strings.HasSuffix(payload.BodyPreview, "..."))
}

func TestListCommentsFiltersInternal(t *testing.T) {
	f := newCommentFixture()
	ticket := f.seedTicket()
	ctx := context.Background()

	_, err := f.service.AddComment(ctx, ticket.ID, "agent-1", "public note", false)
	require.NoError(t, err)
	_, err = f.service.AddComment(ctx, ticket.ID, "agent-1", "internal note", true)
	require.NoError(t, err)

	visible, err := f.service.ListComments(ctx, ticket.ID, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "public note", visible[0].Content)

	all, err := f.service.ListComments(ctx, ticket.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	f := newCommentFixture()
	ticket := f.seedTicket()
	comment, err := f.service.AddComment(context.Background(), ticket.ID, "agent-1", "draft text", false)
	require.NoError(t, err)

	_, err = f.service.UpdateComment(context.Background(), comment.ID, "agent-2", "edited")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	updated, err := f.service.UpdateComment(context.Background(), comment.ID, "agent-1", "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}

func TestDeleteCommentAuthorOrOverride(t *testing.T) {
	f := newCommentFixture()
	ticket := f.seedTicket()
	ctx := context.Background()
	first, err := f.service.AddComment(ctx, ticket.ID, "agent-1", "one", false)
	require.NoError(t, err)
	second, err := f.service.AddComment(ctx, ticket.ID, "agent-1", "two", false)
	require.NoError(t, err)

	err = f.service.DeleteComment(ctx, first.ID, "agent-2", false)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	require.NoError(t, f.service.DeleteComment(ctx, first.ID, "agent-1", false))
	// moderator override removes someone else's comment
	require.NoError(t, f.service.DeleteComment(ctx, second.ID, "admin-1", true))
	assert.Empty(t, f.comments.comments)
}
