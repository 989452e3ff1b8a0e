package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// CommentRepository encapsulates comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, db DB, comment *domain.Comment) error
	Update(ctx context.Context, db DB, comment *domain.Comment) error
	Delete(ctx context.Context, db DB, id string) error
	GetByID(ctx context.Context, db DB, id string) (*domain.Comment, error)
	ListByTicket(ctx context.Context, db DB, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct{}

// NewCommentRepository builds repository.
func NewCommentRepository() CommentRepository {
	return &commentRepository{}
}

func (r *commentRepository) Create(ctx context.Context, db DB, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_id, content, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return db.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Content,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *commentRepository) Update(ctx context.Context, db DB, comment *domain.Comment) error {
	const query = `
        UPDATE comments SET content=$1, is_internal=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	return db.QueryRow(ctx, query, comment.Content, comment.IsInternal, comment.ID).Scan(&comment.UpdatedAt)
}

func (r *commentRepository) Delete(ctx context.Context, db DB, id string) error {
	cmd, err := db.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, db DB, id string) (*domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, is_internal, created_at, updated_at
        FROM comments WHERE id=$1`
	var comment domain.Comment
	if err := db.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Content,
		&comment.IsInternal,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, db DB, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, is_internal, created_at, updated_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Content,
			&comment.IsInternal,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
