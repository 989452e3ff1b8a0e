package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/events"
	"github.com/creatorhub/ticketflow/internal/repository"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

// CommentService appends and maintains collaborative comments on tickets.
type CommentService struct {
	store      repository.TxRunner
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	audit      AuditRecorder
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators.
type CommentDependencies struct {
	Store       repository.TxRunner
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	Audit       AuditRecorder
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService creates the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		store:      deps.Store,
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AddComment appends a comment and touches the ticket's updated_at in the
// same transaction. Visibility of internal comments is the dispatcher's and
// the caller's concern, not filtered here.
func (s *CommentService) AddComment(ctx context.Context, ticketID, authorID, content string, isInternal bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required", nil)
	}

	comment := &domain.Comment{
		TicketID:   ticketID,
		AuthorID:   authorID,
		Content:    content,
		IsInternal: isInternal,
	}
	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(db repository.DB) error {
		current, err := s.tickets.GetByIDForUpdate(ctx, db, ticketID)
		if err != nil {
			return err
		}
		if err := s.comments.Create(ctx, db, comment); err != nil {
			return err
		}
		ticket = current
		return s.tickets.Touch(ctx, db, ticketID)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, domain.AuditActionCommentAdded, ticket, authorID, map[string]any{
		"comment_id":  comment.ID,
		"is_internal": comment.IsInternal,
	})
	s.publishEvent(ctx, events.Event{
		Type:         events.EventCommentAdded,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		ActorID:      authorID,
		Payload: events.CommentAddedPayload{
			CommentID:    comment.ID,
			AuthorID:     authorID,
			IsInternal:   comment.IsInternal,
			CreatorID:    ticket.CreatorID,
			OpenedByID:   ticket.OpenedByID,
			AssignedToID: ticket.AssignedToID,
			BodyPreview:  stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// ListComments returns a ticket's comments, oldest first. Internal comments
// are stripped unless the caller may see them.
func (s *CommentService) ListComments(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	if _, err := s.tickets.GetByID(ctx, s.store.DB(), ticketID); err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByTicket(ctx, s.store.DB(), ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if includeInternal {
		return comments, nil
	}
	filtered := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.IsInternal {
			continue
		}
		filtered = append(filtered, comment)
	}
	return filtered, nil
}

// UpdateComment edits a comment's content; only the original author may.
func (s *CommentService) UpdateComment(ctx context.Context, commentID, actorID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required", nil)
	}
	comment, err := s.comments.GetByID(ctx, s.store.DB(), commentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if comment.AuthorID != actorID {
		return nil, apperrors.NewForbidden("only the comment author may edit it")
	}
	comment.Content = content
	if err := s.comments.Update(ctx, s.store.DB(), comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordCommentAudit(ctx, domain.AuditActionCommentUpdated, comment, actorID)
	return comment, nil
}

// DeleteComment removes a comment. Only the author may, unless the caller
// carries an administrator override granted by the authorization layer.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, actorID string, adminOverride bool) error {
	comment, err := s.comments.GetByID(ctx, s.store.DB(), commentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if comment.AuthorID != actorID && !adminOverride {
		return apperrors.NewForbidden("only the comment author may delete it")
	}
	if err := s.comments.Delete(ctx, s.store.DB(), commentID); err != nil {
		return apperrors.MapError(err)
	}

	s.recordCommentAudit(ctx, domain.AuditActionCommentDeleted, comment, actorID)
	return nil
}

func (s *CommentService) recordAudit(ctx context.Context, action domain.AuditAction, ticket *domain.Ticket, actorID string, details map[string]any) {
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

func (s *CommentService) recordCommentAudit(ctx context.Context, action domain.AuditAction, comment *domain.Comment, actorID string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, domain.AuditLogEntry{
		Action:     action,
		EntityType: "comment",
		EntityID:   comment.ID,
		ActorID:    actorID,
		Details: map[string]any{
			"ticket_id": comment.TicketID,
		},
	})
}

func (s *CommentService) publishEvent(ctx context.Context, event events.Event) {
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

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
