package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/config"
	"github.com/creatorhub/ticketflow/internal/events"
)

type capturedAlert struct {
	channel string
	alert   Alert
}

type fakeSink struct {
	published []capturedAlert
	err       error
}

func (s *fakeSink) Publish(ctx context.Context, channel string, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	var alert Alert
	if err := json.Unmarshal(payload, &alert); err != nil {
		return err
	}
	s.published = append(s.published, capturedAlert{channel: channel, alert: alert})
	return nil
}

func newNotificationFixture() (*NotificationService, *fakeSink, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &fakeSink{}
	svc := NewNotificationService(dispatcher, sink, zap.NewNop(), config.NotificationConfig{
		Channel: "ticketflow:test",
		Enabled: true,
	})
	svc.RegisterHandlers()
	return svc, sink, dispatcher
}

func TestStatusChangeAlertsOpenerAndAssignee(t *testing.T) {
	_, sink, dispatcher := newNotificationFixture()
	assignee := "agent-1"

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:         events.EventTicketStatusChange,
		TicketID:     "t-1",
		TicketNumber: "BRD-2026-00001",
		ActorID:      "manager-1",
		Payload: events.TicketStatusChangedPayload{
			PreviousStatus: "PENDING_REVIEW",
			NewStatus:      "ACCEPTED",
			OpenedByID:     "user-opener",
			AssignedToID:   &assignee,
		},
	})
	require.NoError(t, err)

	require.Len(t, sink.published, 1)
	assert.Equal(t, "ticketflow:test", sink.published[0].channel)
	assert.ElementsMatch(t, []string{"user-opener", "agent-1"}, sink.published[0].alert.Recipients)
}

func TestActorNeverAlertsThemself(t *testing.T) {
	_, sink, dispatcher := newNotificationFixture()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		ActorID: "user-opener",
		Payload: events.TicketCreatedPayload{OpenedByID: "user-opener"},
	})
	require.NoError(t, err)
	// only recipient was the actor, so nothing goes out
	assert.Empty(t, sink.published)
}

func TestInternalCommentSkipsOpener(t *testing.T) {
	_, sink, dispatcher := newNotificationFixture()
	assignee := "agent-1"

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventCommentAdded,
		ActorID: "manager-1",
		Payload: events.CommentAddedPayload{
			CommentID:    "c-1",
			AuthorID:     "manager-1",
			IsInternal:   true,
			OpenedByID:   "user-opener",
			AssignedToID: &assignee,
		},
	})
	require.NoError(t, err)

	require.Len(t, sink.published, 1)
	assert.Equal(t, []string{"agent-1"}, sink.published[0].alert.Recipients)
}

func TestExternalCommentAlertsOpener(t *testing.T) {
	_, sink, dispatcher := newNotificationFixture()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventCommentAdded,
		ActorID: "agent-1",
		Payload: events.CommentAddedPayload{
			CommentID:  "c-2",
			AuthorID:   "agent-1",
			IsInternal: false,
			OpenedByID: "user-opener",
		},
	})
	require.NoError(t, err)

	require.Len(t, sink.published, 1)
	assert.Equal(t, []string{"user-opener"}, sink.published[0].alert.Recipients)
}

func TestSinkFailureNeverPropagates(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &fakeSink{err: errors.New("redis gone")}
	svc := NewNotificationService(dispatcher, sink, zap.NewNop(), config.NotificationConfig{Channel: "c", Enabled: true})
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		ActorID: "manager-1",
		Payload: events.TicketCreatedPayload{OpenedByID: "user-opener"},
	})
	assert.NoError(t, err)
}

func TestDisabledNotificationsStaySilent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &fakeSink{}
	svc := NewNotificationService(dispatcher, sink, zap.NewNop(), config.NotificationConfig{Channel: "c", Enabled: false})
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		ActorID: "manager-1",
		Payload: events.TicketCreatedPayload{OpenedByID: "user-opener"},
	})
	require.NoError(t, err)
	assert.Empty(t, sink.published)
}

func TestExcludeActorDeduplicates(t *testing.T) {
	out := excludeActor([]string{"a", "b", "a", "", "actor"}, "actor")
	assert.Equal(t, []string{"a", "b"}, out)
}
