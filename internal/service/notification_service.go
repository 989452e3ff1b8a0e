package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/config"
	"github.com/creatorhub/ticketflow/internal/events"
)

// AlertSink is the outbound channel alerts are pushed to.
type AlertSink interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Alert is the message fanned out to subscribers of the notification
// channel.
type Alert struct {
	Event        events.EventType `json:"event"`
	TicketID     string           `json:"ticket_id"`
	TicketNumber string           `json:"ticket_number"`
	ActorID      string           `json:"actor_id"`
	Recipients   []string         `json:"recipients"`
	Payload      any              `json:"payload,omitempty"`
	SentAt       time.Time        `json:"sent_at"`
}

// NotificationService turns committed domain events into best-effort alerts
// on a redis pub/sub channel. It decides who to alert; failures are logged
// and never surface to the operation that emitted the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       AlertSink
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sink AlertSink, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChange, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventTicketUnassigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	recipients := excludeActor([]string{payload.OpenedByID}, event.ActorID)
	return n.send(ctx, event, recipients)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	recipients := []string{payload.OpenedByID}
	if payload.AssignedToID != nil {
		recipients = append(recipients, *payload.AssignedToID)
	}
	return n.send(ctx, event, excludeActor(recipients, event.ActorID))
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	recipients := []string{}
	if payload.AssignedToID != nil {
		recipients = append(recipients, *payload.AssignedToID)
	}
	if payload.PreviousAssigneeID != nil {
		recipients = append(recipients, *payload.PreviousAssigneeID)
	}
	return n.send(ctx, event, excludeActor(recipients, event.ActorID))
}

// handleCommentAdded respects comment visibility: internal comments only
// reach the assignee, external ones also reach whoever opened the ticket.
func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	recipients := []string{}
	if !payload.IsInternal {
		recipients = append(recipients, payload.OpenedByID)
	}
	if payload.AssignedToID != nil {
		recipients = append(recipients, *payload.AssignedToID)
	}
	return n.send(ctx, event, excludeActor(recipients, payload.AuthorID))
}

func (n *NotificationService) send(ctx context.Context, event events.Event, recipients []string) error {
	if !n.cfg.Enabled || n.sink == nil || len(recipients) == 0 {
		return nil
	}
	alert := Alert{
		Event:        event.Type,
		TicketID:     event.TicketID,
		TicketNumber: event.TicketNumber,
		ActorID:      event.ActorID,
		Recipients:   recipients,
		Payload:      event.Payload,
		SentAt:       time.Now(),
	}
	raw, err := json.Marshal(alert)
	if err != nil {
		n.logger.Warn("alert marshal failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return nil
	}
	if err := n.sink.Publish(ctx, n.cfg.Channel, raw); err != nil {
		n.logger.Warn("alert publish failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
	return nil
}

func excludeActor(recipients []string, actorID string) []string {
	out := make([]string, 0, len(recipients))
	seen := map[string]struct{}{}
	for _, recipient := range recipients {
		if recipient == "" || recipient == actorID {
			continue
		}
		if _, dup := seen[recipient]; dup {
			continue
		}
		seen[recipient] = struct{}{}
		out = append(out, recipient)
	}
	return out
}
