package service

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/events"
	"github.com/creatorhub/ticketflow/internal/repository"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

// PayloadValidator checks the shape of a type-specific ticketData document.
// The engine itself never inspects the payload; callers may install a
// validator keyed by ticket type.
type PayloadValidator func(ticketType domain.TicketType, data map[string]any) error

// TicketService owns the ticket aggregate and the transition engine. Every
// ticket mutation commits together with exactly one history entry; audit and
// notification side effects run after commit and never fail the operation.
type TicketService struct {
	store      repository.TxRunner
	tickets    repository.TicketRepository
	sequences  repository.TicketSequenceRepository
	history    repository.TicketHistoryRepository
	creators   repository.CreatorRepository
	audit      AuditRecorder
	dispatcher events.Dispatcher
	logger     *zap.Logger
	validate   PayloadValidator
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store            repository.TxRunner
	TicketRepo       repository.TicketRepository
	SequenceRepo     repository.TicketSequenceRepository
	HistoryRepo      repository.TicketHistoryRepository
	CreatorRepo      repository.CreatorRepository
	Audit            AuditRecorder
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	PayloadValidator PayloadValidator
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Type        domain.TicketType
	Priority    domain.TicketPriority
	Title       string
	Description string
	TicketData  map[string]any
	Deadline    *time.Time
	CreatorID   string
	OpenedByID  string
}

// TicketUpdateInput carries non-status field edits. Nil fields are left
// untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	Deadline    *time.Time
	TicketData  map[string]any
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		tickets:    deps.TicketRepo,
		sequences:  deps.SequenceRepo,
		history:    deps.HistoryRepo,
		creators:   deps.CreatorRepo,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		validate:   deps.PayloadValidator,
	}
}

// CreateTicket opens a new ticket in DRAFT for a creator account. The
// ticket number is allocated from a per-(type, year) counter inside the
// creation transaction, so concurrent creations of the same type cannot
// collide.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if !input.Type.IsValid() {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": input.Type})
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if s.validate != nil && input.TicketData != nil {
		if err := s.validate(input.Type, input.TicketData); err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"type": input.Type})
		}
	}

	creator, err := s.creators.GetByID(ctx, s.store.DB(), input.CreatorID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !creator.Active {
		return nil, apperrors.NewPreconditionFailed("creator account inactive", map[string]any{"creator_id": creator.ID})
	}

	ticket := &domain.Ticket{
		Type:        input.Type,
		Status:      domain.TicketStatusDraft,
		Priority:    input.Priority,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		TicketData:  input.TicketData,
		Deadline:    input.Deadline,
		CreatorID:   input.CreatorID,
		OpenedByID:  input.OpenedByID,
	}
	if ticket.TicketData == nil {
		ticket.TicketData = map[string]any{}
	}

	year := time.Now().Year()
	err = s.store.WithinTx(ctx, func(db repository.DB) error {
		seq, err := s.sequences.Next(ctx, db, ticket.Type, year)
		if err != nil {
			return err
		}
		ticket.Number = fmt.Sprintf("%s-%d-%05d", ticket.Type.NumberPrefix(), year, seq)
		return s.tickets.Create(ctx, db, ticket)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, domain.AuditActionTicketCreated, ticket, input.OpenedByID, map[string]any{
		"ticket_type": ticket.Type,
		"priority":    ticket.Priority,
		"title":       ticket.Title,
	})
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		ActorID:      input.OpenedByID,
		Payload: events.TicketCreatedPayload{
			TicketType: ticket.Type,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
			CreatorID:  ticket.CreatorID,
			OpenedByID: ticket.OpenedByID,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, s.store.DB(), ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// GetTicketByNumber fetches a ticket by its human-readable number.
func (s *TicketService) GetTicketByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, s.store.DB(), number)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns a filtered, paginated page of tickets.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, s.store.DB(), filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListHistory returns the ticket's history trail, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.GetByID(ctx, s.store.DB(), ticketID); err != nil {
		return nil, apperrors.MapError(err)
	}
	entries, err := s.history.ListByTicket(ctx, s.store.DB(), ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Transition moves a ticket to a new status. Graph legality, the
// rejection-reason rule and the timestamp stamping all happen inside one
// transaction together with the history write; the row lock taken by the
// read makes concurrent transitions on the same ticket serialize, so the
// loser observes the committed status and fails the legality check.
func (s *TicketService) Transition(ctx context.Context, ticketID string, requested domain.TicketStatus, actorID, reason string) (*domain.Ticket, error) {
	if !requested.IsValid() {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": requested})
	}
	reason = strings.TrimSpace(reason)

	var (
		ticket   *domain.Ticket
		previous domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(db repository.DB) error {
		current, err := s.tickets.GetByIDForUpdate(ctx, db, ticketID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(current.Status, requested) {
			return apperrors.NewIllegalTransition(string(current.Status), string(requested))
		}
		if requested == domain.TicketStatusRejected && reason == "" {
			return apperrors.NewPreconditionFailed("a reason is required to reject a ticket", map[string]any{"ticket_id": ticketID})
		}

		previous = current.Status
		previousData := maps.Clone(current.TicketData)

		now := time.Now()
		switch requested {
		case domain.TicketStatusSubmitted:
			if current.SubmittedAt == nil {
				current.SubmittedAt = &now
			}
		case domain.TicketStatusCompleted:
			if current.CompletedAt == nil {
				current.CompletedAt = &now
			}
		case domain.TicketStatusRejected:
			r := reason
			current.RejectionReason = &r
		}
		current.Status = requested

		if err := s.tickets.Update(ctx, db, current); err != nil {
			return err
		}

		historyReason := reason
		if historyReason == "" {
			historyReason = fmt.Sprintf("status changed to %s", requested)
		}
		if err := s.history.Create(ctx, db, &domain.TicketHistory{
			TicketID:       current.ID,
			PreviousStatus: previous,
			NewStatus:      requested,
			PreviousData:   previousData,
			NewData:        maps.Clone(current.TicketData),
			ChangedByID:    actorID,
			Reason:         historyReason,
		}); err != nil {
			return err
		}

		ticket = current
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, domain.AuditActionStatusChanged, ticket, actorID, map[string]any{
		"previous_status": previous,
		"new_status":      requested,
		"reason":          reason,
	})
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketStatusChange,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		ActorID:      actorID,
		Payload: events.TicketStatusChangedPayload{
			PreviousStatus: previous,
			NewStatus:      requested,
			Reason:         reason,
			CreatorID:      ticket.CreatorID,
			OpenedByID:     ticket.OpenedByID,
			AssignedToID:   ticket.AssignedToID,
		},
	})
	return ticket, nil
}

// Submit moves a draft ticket into the workflow.
func (s *TicketService) Submit(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusSubmitted, actorID, "")
}

// SendToReview moves a submitted ticket into review.
func (s *TicketService) SendToReview(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusPendingReview, actorID, "")
}

// Accept approves a reviewed ticket.
func (s *TicketService) Accept(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusAccepted, actorID, "")
}

// Reject declines a ticket; reason is mandatory.
func (s *TicketService) Reject(ctx context.Context, ticketID, actorID, reason string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusRejected, actorID, reason)
}

// StartProgress marks an accepted ticket as being worked on.
func (s *TicketService) StartProgress(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusInProgress, actorID, "")
}

// Complete finishes an in-progress ticket.
func (s *TicketService) Complete(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusCompleted, actorID, "")
}

// Cancel terminates a ticket from any non-terminal state.
func (s *TicketService) Cancel(ctx context.Context, ticketID, actorID, reason string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusCancelled, actorID, reason)
}

// UpdateTicket edits non-status fields. A no-op update (nothing actually
// differs) short-circuits and writes neither the ticket nor history.
func (s *TicketService) UpdateTicket(ctx context.Context, ticketID, actorID string, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
	}

	var (
		ticket  *domain.Ticket
		changed bool
	)
	err := s.store.WithinTx(ctx, func(db repository.DB) error {
		current, err := s.tickets.GetByIDForUpdate(ctx, db, ticketID)
		if err != nil {
			return err
		}
		if s.validate != nil && input.TicketData != nil {
			if err := s.validate(current.Type, input.TicketData); err != nil {
				return apperrors.NewValidationError(err.Error(), map[string]any{"type": current.Type})
			}
		}

		previousData := maps.Clone(current.TicketData)
		changedFields := []string{}

		if input.Title != nil {
			if title := strings.TrimSpace(*input.Title); title != "" && title != current.Title {
				current.Title = title
				changedFields = append(changedFields, "title")
			}
		}
		if input.Description != nil {
			if description := strings.TrimSpace(*input.Description); description != current.Description {
				current.Description = description
				changedFields = append(changedFields, "description")
			}
		}
		if input.Priority != nil && *input.Priority != current.Priority {
			current.Priority = *input.Priority
			changedFields = append(changedFields, "priority")
		}
		if input.Deadline != nil && !equalTimePtr(input.Deadline, current.Deadline) {
			current.Deadline = input.Deadline
			changedFields = append(changedFields, "deadline")
		}
		if input.TicketData != nil && !reflect.DeepEqual(input.TicketData, current.TicketData) {
			current.TicketData = input.TicketData
			changedFields = append(changedFields, "ticket_data")
		}

		ticket = current
		if len(changedFields) == 0 {
			return nil
		}
		changed = true

		if err := s.tickets.Update(ctx, db, current); err != nil {
			return err
		}
		return s.history.Create(ctx, db, &domain.TicketHistory{
			TicketID:       current.ID,
			PreviousStatus: current.Status,
			NewStatus:      current.Status,
			PreviousData:   previousData,
			NewData:        maps.Clone(current.TicketData),
			ChangedByID:    actorID,
			Reason:         "updated " + strings.Join(changedFields, ", "),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !changed {
		return ticket, nil
	}

	s.recordAudit(ctx, domain.AuditActionTicketUpdated, ticket, actorID, map[string]any{
		"priority": ticket.Priority,
		"title":    ticket.Title,
	})
	return ticket, nil
}

// DeleteTicket hard-deletes a ticket still in DRAFT. Anything further along
// must be cancelled instead, so its trail survives.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID, actorID string) error {
	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(db repository.DB) error {
		current, err := s.tickets.GetByIDForUpdate(ctx, db, ticketID)
		if err != nil {
			return err
		}
		if current.Status != domain.TicketStatusDraft {
			return apperrors.NewPreconditionFailed(
				"only draft tickets can be deleted; use cancel instead",
				map[string]any{"ticket_id": ticketID, "status": current.Status},
			)
		}
		ticket = current
		return s.tickets.Delete(ctx, db, ticketID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	s.recordAudit(ctx, domain.AuditActionTicketDeleted, ticket, actorID, map[string]any{
		"title": ticket.Title,
	})
	return nil
}

func (s *TicketService) recordAudit(ctx context.Context, action domain.AuditAction, ticket *domain.Ticket, actorID string, details map[string]any) {
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

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
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

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
