package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/auth"
	"github.com/creatorhub/ticketflow/internal/config"
	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/repository"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

// RequestMeta carries caller attribution for audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthService issues tokens for the HTTP surface. Login and logout are
// audited actions; the audit entry never carries the credential itself.
type AuthService struct {
	store  repository.TxRunner
	users  repository.UserRepository
	tokens *auth.TokenManager
	audit  AuditRecorder
	logger *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, store repository.TxRunner, users repository.UserRepository, audit AuditRecorder, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:  store,
		users:  users,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		audit:  audit,
		logger: logger,
	}
}

// TokenManager exposes the manager for middleware construction.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (string, time.Time, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, s.store.DB(), email)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.recordLoginFailure(ctx, email, meta, "unknown email")
			return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordLoginFailure(ctx, email, meta, "bad password")
		return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		s.recordLoginFailure(ctx, email, meta, "account disabled")
		return "", time.Time{}, nil, apperrors.NewUnauthorized("account disabled")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, nil, apperrors.MapError(err)
	}

	s.recordAuthAudit(ctx, domain.AuditActionUserLogin, user.ID, user.Email, meta, map[string]any{
		"role": user.Role,
	})
	return token, expiresAt, user, nil
}

// Logout only records the action; tokens are stateless.
func (s *AuthService) Logout(ctx context.Context, user *domain.User, meta RequestMeta) {
	if user == nil {
		return
	}
	s.recordAuthAudit(ctx, domain.AuditActionUserLogout, user.ID, user.Email, meta, nil)
}

func (s *AuthService) recordLoginFailure(ctx context.Context, email string, meta RequestMeta, cause string) {
	s.recordAuthAudit(ctx, domain.AuditActionUserLoginFailed, "", email, meta, map[string]any{
		"cause": cause,
	})
}

func (s *AuthService) recordAuthAudit(ctx context.Context, action domain.AuditAction, actorID, actorLabel string, meta RequestMeta, details map[string]any) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditLogEntry{
		Action:     action,
		EntityType: "user",
		EntityID:   actorID,
		ActorID:    actorID,
		ActorLabel: actorLabel,
		Details:    details,
	}
	if meta.IPAddress != "" {
		ip := meta.IPAddress
		entry.IPAddress = &ip
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		entry.UserAgent = &ua
	}
	s.audit.Record(ctx, entry)
}
