package repository

import (
	"context"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// TicketSequenceRepository owns the per-(type, year) ticket-number counters.
// Next must be called inside the creation transaction: the upsert takes a row
// lock on the counter, serializing concurrent creations of the same type.
type TicketSequenceRepository interface {
	Next(ctx context.Context, db DB, ticketType domain.TicketType, year int) (int64, error)
}

type ticketSequenceRepository struct{}

// NewTicketSequenceRepository builds repository.
func NewTicketSequenceRepository() TicketSequenceRepository {
	return &ticketSequenceRepository{}
}

func (r *ticketSequenceRepository) Next(ctx context.Context, db DB, ticketType domain.TicketType, year int) (int64, error) {
	const query = `
        INSERT INTO ticket_sequences (ticket_type, year, value)
        VALUES ($1, $2, 1)
        ON CONFLICT (ticket_type, year)
        DO UPDATE SET value = ticket_sequences.value + 1
        RETURNING value`
	var value int64
	if err := db.QueryRow(ctx, query, ticketType, year).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
