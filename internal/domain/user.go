package domain

import "time"

// UserRole is the static role assigned to an account. Role-to-capability
// mapping lives in the auth package; the engine only records identities.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleAgent   UserRole = "AGENT"
	RoleCreator UserRole = "CREATOR"
)

// User is an agency staff member or creator-side account holder.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
