package dto

import (
	"time"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse represents a user without credential material.
type UserResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Role   domain.UserRole `json:"role"`
	Active bool            `json:"active"`
}

// AuditEntryResponse represents one audit log record.
type AuditEntryResponse struct {
	ID         string             `json:"id"`
	Action     domain.AuditAction `json:"action"`
	EntityType string             `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
	ActorID    string             `json:"actor_id"`
	ActorLabel string             `json:"actor_label"`
	IPAddress  *string            `json:"ip_address,omitempty"`
	UserAgent  *string            `json:"user_agent,omitempty"`
	Details    map[string]any     `json:"details"`
	CreatedAt  time.Time          `json:"created_at"`
}
