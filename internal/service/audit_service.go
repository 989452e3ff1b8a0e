package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/repository"
	apperrors "github.com/creatorhub/ticketflow/pkg/util"
)

// AuditRecorder is the best-effort audit sink the engine reports into.
// Implementations must never propagate failures to the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditLogEntry)
}

// secretKeyTerms is the denylist of credential-bearing key names. A key
// matches when its lowercased name contains any term.
var secretKeyTerms = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"apikey",
	"api_key",
	"authorization",
	"credential",
	"private_key",
}

// AuditService writes the system-wide audit log. Writes are outside any
// mutation's atomicity boundary: a failure is logged and swallowed so an
// audit outage never blocks ticket workflows.
type AuditService struct {
	store  repository.TxRunner
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(store repository.TxRunner, repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{store: store, repo: repo, logger: logger}
}

// Record redacts and persists one audit entry, best-effort.
func (s *AuditService) Record(ctx context.Context, entry domain.AuditLogEntry) {
	entry.Details = RedactSecrets(entry.Details)
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	if err := s.repo.Create(ctx, s.store.DB(), &entry); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// List returns filtered audit entries, newest first.
func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	entries, err := s.repo.List(ctx, s.store.DB(), filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// RedactSecrets replaces values under credential-bearing keys with a
// placeholder, recursing through nested maps and slices. The input is not
// mutated.
func RedactSecrets(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for key, value := range details {
		if isSecretKey(key) {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return RedactSecrets(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redactValue(item)
		}
		return out
	default:
		return value
	}
}

func isSecretKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, term := range secretKeyTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
