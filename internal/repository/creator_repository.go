package repository

import (
	"context"

	"github.com/creatorhub/ticketflow/internal/domain"
)

// CreatorRepository encapsulates creator account persistence.
type CreatorRepository interface {
	Create(ctx context.Context, db DB, account *domain.CreatorAccount) error
	GetByID(ctx context.Context, db DB, id string) (*domain.CreatorAccount, error)
	GetByHandle(ctx context.Context, db DB, handle string) (*domain.CreatorAccount, error)
}

type creatorRepository struct{}

// NewCreatorRepository instantiates repository.
func NewCreatorRepository() CreatorRepository {
	return &creatorRepository{}
}

const creatorColumns = `id, display_name, handle, platform, active, created_at, updated_at`

func (r *creatorRepository) Create(ctx context.Context, db DB, account *domain.CreatorAccount) error {
	const query = `
        INSERT INTO creator_accounts (display_name, handle, platform, active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return db.QueryRow(ctx, query,
		account.DisplayName,
		account.Handle,
		account.Platform,
		account.Active,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *creatorRepository) GetByID(ctx context.Context, db DB, id string) (*domain.CreatorAccount, error) {
	return r.fetchSingle(ctx, db, `SELECT `+creatorColumns+` FROM creator_accounts WHERE id=$1`, id)
}

func (r *creatorRepository) GetByHandle(ctx context.Context, db DB, handle string) (*domain.CreatorAccount, error) {
	return r.fetchSingle(ctx, db, `SELECT `+creatorColumns+` FROM creator_accounts WHERE handle=$1`, handle)
}

func (r *creatorRepository) fetchSingle(ctx context.Context, db DB, query string, arg any) (*domain.CreatorAccount, error) {
	var account domain.CreatorAccount
	if err := db.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.DisplayName,
		&account.Handle,
		&account.Platform,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
