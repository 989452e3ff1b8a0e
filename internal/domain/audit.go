package domain

import "time"

// AuditAction identifies what an audit entry describes.
type AuditAction string

const (
	AuditActionTicketCreated     AuditAction = "ticket.created"
	AuditActionTicketUpdated     AuditAction = "ticket.updated"
	AuditActionTicketDeleted     AuditAction = "ticket.deleted"
	AuditActionStatusChanged     AuditAction = "ticket.status_changed"
	AuditActionTicketAssigned    AuditAction = "ticket.assigned"
	AuditActionTicketUnassigned  AuditAction = "ticket.unassigned"
	AuditActionCommentAdded      AuditAction = "comment.added"
	AuditActionCommentUpdated    AuditAction = "comment.updated"
	AuditActionCommentDeleted    AuditAction = "comment.deleted"
	AuditActionUserLogin         AuditAction = "user.login"
	AuditActionUserLoginFailed   AuditAction = "user.login_failed"
	AuditActionUserLogout        AuditAction = "user.logout"
	AuditActionUserRoleChanged   AuditAction = "user.role_changed"
	AuditActionUserStatusChanged AuditAction = "user.status_changed"
)

// AuditLogEntry is a system-wide append-only record, coarser than ticket
// history. Details must be redacted of credentials before persistence; its
// write is best-effort and never rolls back the operation it describes.
type AuditLogEntry struct {
	ID         string
	Action     AuditAction
	EntityType string
	EntityID   string
	ActorID    string
	ActorLabel string
	IPAddress  *string
	UserAgent  *string
	Details    map[string]any
	CreatedAt  time.Time
}

// AuditFilter captures audit listing parameters.
type AuditFilter struct {
	Action     *AuditAction
	EntityType *string
	EntityID   *string
	ActorID    *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
