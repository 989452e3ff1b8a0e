package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// AuditRepository stores the system-wide append-only audit log.
type AuditRepository interface {
	Create(ctx context.Context, db DB, entry *domain.AuditLogEntry) error
	List(ctx context.Context, db DB, filter domain.AuditFilter) ([]domain.AuditLogEntry, error)
}

type auditRepository struct{}

// NewAuditRepository builds repository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

func (r *auditRepository) Create(ctx context.Context, db DB, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_log (action, entity_type, entity_id, actor_id, actor_label, ip_address, user_agent, details)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return db.QueryRow(ctx, query,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.ActorID,
		entry.ActorLabel,
		entry.IPAddress,
		entry.UserAgent,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, db DB, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	base := `SELECT id, action, entity_type, entity_id, actor_id, actor_label, ip_address, user_agent, details, created_at
             FROM audit_log`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Action != nil {
		args = append(args, *filter.Action)
		clauses = append(clauses, fmt.Sprintf("action=$%d", len(args)))
	}
	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		clauses = append(clauses, fmt.Sprintf("entity_type=$%d", len(args)))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		clauses = append(clauses, fmt.Sprintf("entity_id=$%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		clauses = append(clauses, fmt.Sprintf("actor_id=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
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

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.ActorID,
			&entry.ActorLabel,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
