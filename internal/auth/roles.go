package auth

import "github.com/creatorhub/ticketflow/internal/domain"

// Capability is a permission tag checked before invoking engine operations.
// The engine itself never evaluates roles; this table belongs to the caller
// layer.
type Capability string

const (
	CapTicketCreate     Capability = "ticket.create"
	CapTicketRead       Capability = "ticket.read"
	CapTicketReadOwn    Capability = "ticket.read.own"
	CapTicketUpdate     Capability = "ticket.update"
	CapTicketDelete     Capability = "ticket.delete"
	CapTicketTransition Capability = "ticket.transition"
	CapAssign           Capability = "assign"
	CapAssignSelf       Capability = "assign.self"
	CapCommentWrite     Capability = "comment.write"
	CapCommentInternal  Capability = "comment.internal"
	CapCommentModerate  Capability = "comment.moderate"
	CapAuditRead        Capability = "audit.read"
	CapUserManage       Capability = "user.manage"
)

// rolePermissions is the static role-to-capability table. Immutable by
// convention; nothing mutates it after init.
var rolePermissions = map[domain.UserRole]map[Capability]struct{}{
	domain.RoleAdmin: capSet(
		CapTicketCreate, CapTicketRead, CapTicketReadOwn, CapTicketUpdate, CapTicketDelete,
		CapTicketTransition, CapAssign, CapAssignSelf,
		CapCommentWrite, CapCommentInternal, CapCommentModerate,
		CapAuditRead, CapUserManage,
	),
	domain.RoleManager: capSet(
		CapTicketCreate, CapTicketRead, CapTicketReadOwn, CapTicketUpdate, CapTicketDelete,
		CapTicketTransition, CapAssign, CapAssignSelf,
		CapCommentWrite, CapCommentInternal,
		CapAuditRead,
	),
	domain.RoleAgent: capSet(
		CapTicketRead, CapTicketReadOwn, CapTicketUpdate,
		CapTicketTransition, CapAssignSelf,
		CapCommentWrite, CapCommentInternal,
	),
	domain.RoleCreator: capSet(
		CapTicketCreate, CapTicketReadOwn,
		CapCommentWrite,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Can reports whether a role carries the capability.
func Can(role domain.UserRole, capability Capability) bool {
	caps, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}
