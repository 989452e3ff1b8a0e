package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Types         []domain.TicketType
	Statuses      []domain.TicketStatus
	Priorities    []domain.TicketPriority
	CreatorID     *string
	OpenedByID    *string
	AssignedToID  *string
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
	SortBy        string
	SortDesc      bool
	Limit         int
	Offset        int
}

// sortColumns is the allow-list of sortable fields.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"submitted_at": "submitted_at",
	"priority":     "priority",
	"deadline":     "deadline",
	"number":       "number",
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, db DB, ticket *domain.Ticket) error
	Update(ctx context.Context, db DB, ticket *domain.Ticket) error
	Touch(ctx context.Context, db DB, id string) error
	Delete(ctx context.Context, db DB, id string) error
	GetByID(ctx context.Context, db DB, id string) (*domain.Ticket, error)
	GetByIDForUpdate(ctx context.Context, db DB, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, db DB, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, db DB, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct{}

// NewTicketRepository instantiates repository.
func NewTicketRepository() TicketRepository {
	return &ticketRepository{}
}

const ticketColumns = `id, number, ticket_type, status, priority, title, description, ticket_data,
               deadline, rejection_reason, creator_id, opened_by_id, assigned_to_id,
               submitted_at, completed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, db DB, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, ticket_type, status, priority, title, description, ticket_data,
                             deadline, creator_id, opened_by_id, assigned_to_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return db.QueryRow(ctx, query,
		ticket.Number,
		ticket.Type,
		ticket.Status,
		ticket.Priority,
		ticket.Title,
		ticket.Description,
		ticket.TicketData,
		ticket.Deadline,
		ticket.CreatorID,
		ticket.OpenedByID,
		ticket.AssignedToID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, db DB, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, priority=$2, title=$3, description=$4, ticket_data=$5,
            deadline=$6, rejection_reason=$7, assigned_to_id=$8, submitted_at=$9, completed_at=$10,
            updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	return db.QueryRow(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.Title,
		ticket.Description,
		ticket.TicketData,
		ticket.Deadline,
		ticket.RejectionReason,
		ticket.AssignedToID,
		ticket.SubmittedAt,
		ticket.CompletedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) Touch(ctx context.Context, db DB, id string) error {
	cmd, err := db.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, db DB, id string) error {
	cmd, err := db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, db DB, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, db, query, id)
}

// GetByIDForUpdate takes a row lock so concurrent mutations on the same
// ticket serialize within their transactions.
func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, db DB, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 FOR UPDATE`, ticketColumns)
	return r.fetchSingle(ctx, db, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, db DB, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE number=$1`, ticketColumns)
	return r.fetchSingle(ctx, db, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, db DB, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(db.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, db DB, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("ticket_type IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.OpenedByID != nil {
		args = append(args, *filter.OpenedByID)
		clauses = append(clauses, fmt.Sprintf("opened_by_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SubmittedFrom != nil {
		args = append(args, *filter.SubmittedFrom)
		clauses = append(clauses, fmt.Sprintf("submitted_at >= $%d", len(args)))
	}
	if filter.SubmittedTo != nil {
		args = append(args, *filter.SubmittedTo)
		clauses = append(clauses, fmt.Sprintf("submitted_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(number) LIKE %s)", placeholder, placeholder, placeholder))
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "updated_at"
	}
	direction := "ASC"
	if filter.SortDesc || filter.SortBy == "" {
		direction = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), orderBy, direction, limit, offset)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Type,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Title,
		&ticket.Description,
		&ticket.TicketData,
		&ticket.Deadline,
		&ticket.RejectionReason,
		&ticket.CreatorID,
		&ticket.OpenedByID,
		&ticket.AssignedToID,
		&ticket.SubmittedAt,
		&ticket.CompletedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
