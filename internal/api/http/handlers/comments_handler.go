package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/ticketflow/internal/api/dto"
	"github.com/creatorhub/ticketflow/internal/auth"
	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/service"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

// CommentsHandler exposes ticket comment endpoints.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}
	if req.IsInternal && !auth.Can(principal.User.Role, auth.CapCommentInternal) {
		return apperrors.NewForbidden("internal comments require staff role")
	}
	comment, err := h.comments.AddComment(c.UserContext(), c.Params("id"), principal.User.ID, req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /tickets/:id/comments. Internal comments are filtered
// out for callers lacking the internal-comment capability.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	includeInternal := auth.Can(principal.User.Role, auth.CapCommentInternal)
	comments, err := h.comments.ListComments(c.UserContext(), c.Params("id"), includeInternal)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateComment PATCH /comments/:id.
func (h *CommentsHandler) UpdateComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}
	comment, err := h.comments.UpdateComment(c.UserContext(), c.Params("id"), principal.User.ID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": commentResponse(comment)})
}

// DeleteComment DELETE /comments/:id. Authors delete their own comments;
// moderators may delete any comment.
func (h *CommentsHandler) DeleteComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	override := auth.Can(principal.User.Role, auth.CapCommentModerate)
	if err := h.comments.DeleteComment(c.UserContext(), c.Params("id"), principal.User.ID, override); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		AuthorID:   comment.AuthorID,
		Content:    comment.Content,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
	}
}
