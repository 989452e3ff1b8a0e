package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/events"
	"github.com/creatorhub/ticketflow/internal/repository"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

// AssignmentService mutates ticket ownership. Like transitions, every
// assignment change commits together with a history entry whose statuses
// are unchanged.
type AssignmentService struct {
	store      repository.TxRunner
	tickets    repository.TicketRepository
	users      repository.UserRepository
	history    repository.TicketHistoryRepository
	audit      AuditRecorder
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store       repository.TxRunner
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.TicketHistoryRepository
	Audit       AuditRecorder
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		store:      deps.Store,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Assign sets the ticket's assignee. The assignee must exist and be active.
// The assignee is notified unless they assigned the ticket to themselves.
func (s *AssignmentService) Assign(ctx context.Context, ticketID, assigneeID, actorID string) (*domain.Ticket, error) {
	assignee, err := s.users.GetByID(ctx, s.store.DB(), assigneeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewPreconditionFailed("assignee is inactive", map[string]any{"user_id": assigneeID})
	}

	var (
		ticket   *domain.Ticket
		previous *string
	)
	err = s.store.WithinTx(ctx, func(db repository.DB) error {
		current, err := s.tickets.GetByIDForUpdate(ctx, db, ticketID)
		if err != nil {
			return err
		}
		previous = current.AssignedToID
		current.AssignedToID = &assignee.ID
		if err := s.tickets.Update(ctx, db, current); err != nil {
			return err
		}
		ticket = current
		return s.recordAssignmentHistory(ctx, db, current, actorID, fmt.Sprintf("assigned to %s", assignee.Name))
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, domain.AuditActionTicketAssigned, ticket, actorID, map[string]any{
		"assigned_to_id":       assignee.ID,
		"previous_assignee_id": previous,
	})
	if assigneeID != actorID {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventTicketAssigned,
			TicketID:     ticket.ID,
			TicketNumber: ticket.Number,
			ActorID:      actorID,
			Payload: events.TicketAssignedPayload{
				AssignedToID:       ticket.AssignedToID,
				PreviousAssigneeID: previous,
			},
		})
	}
	return ticket, nil
}

// Unassign clears the ticket's assignee; fails when nobody is assigned.
func (s *AssignmentService) Unassign(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	var (
		ticket   *domain.Ticket
		previous *string
	)
	err := s.store.WithinTx(ctx, func(db repository.DB) error {
		current, err := s.tickets.GetByIDForUpdate(ctx, db, ticketID)
		if err != nil {
			return err
		}
		if current.AssignedToID == nil {
			return apperrors.NewPreconditionFailed("ticket has no assignee", map[string]any{"ticket_id": ticketID})
		}
		previous = current.AssignedToID
		current.AssignedToID = nil
		if err := s.tickets.Update(ctx, db, current); err != nil {
			return err
		}
		ticket = current
		return s.recordAssignmentHistory(ctx, db, current, actorID, "unassigned")
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, domain.AuditActionTicketUnassigned, ticket, actorID, map[string]any{
		"previous_assignee_id": previous,
	})
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketUnassigned,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		ActorID:      actorID,
		Payload: events.TicketAssignedPayload{
			PreviousAssigneeID: previous,
		},
	})
	return ticket, nil
}

// recordAssignmentHistory writes a history entry with before==after status;
// the reason names the new owner.
func (s *AssignmentService) recordAssignmentHistory(ctx context.Context, db repository.DB, ticket *domain.Ticket, actorID, reason string) error {
	return s.history.Create(ctx, db, &domain.TicketHistory{
		TicketID:       ticket.ID,
		PreviousStatus: ticket.Status,
		NewStatus:      ticket.Status,
		PreviousData:   ticket.TicketData,
		NewData:        ticket.TicketData,
		ChangedByID:    actorID,
		Reason:         reason,
	})
}

func (s *AssignmentService) recordAudit(ctx context.Context, action domain.AuditAction, ticket *domain.Ticket, actorID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, domain.AuditLogEntry{
		Action:     action,
		EntityType: "ticket",
		EntityID:   ticket.Number,
		ActorID:    actorID,
		Details:    details,
	})
}

func (s *AssignmentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
