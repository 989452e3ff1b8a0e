package repository

import (
	"context"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// TicketHistoryRepository stores the per-ticket audit trail. Entries are
// append-only; there is no update or delete.
type TicketHistoryRepository interface {
	Create(ctx context.Context, db DB, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, db DB, ticketID string, limit, offset int) ([]domain.TicketHistory, error)
	CountByTicket(ctx context.Context, db DB, ticketID string) (int64, error)
}

type ticketHistoryRepository struct{}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository() TicketHistoryRepository {
	return &ticketHistoryRepository{}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, db DB, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, previous_status, new_status, previous_data, new_data, changed_by_id, reason)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return db.QueryRow(ctx, query,
		history.TicketID,
		history.PreviousStatus,
		history.NewStatus,
		history.PreviousData,
		history.NewData,
		history.ChangedByID,
		history.Reason,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, db DB, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, previous_status, new_status, previous_data, new_data, changed_by_id, reason, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := db.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.PreviousStatus,
			&history.NewStatus,
			&history.PreviousData,
			&history.NewData,
			&history.ChangedByID,
			&history.Reason,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

func (r *ticketHistoryRepository) CountByTicket(ctx context.Context, db DB, ticketID string) (int64, error) {
	var count int64
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_history WHERE ticket_id=$1`, ticketID).Scan(&count)
	return count, err
}
