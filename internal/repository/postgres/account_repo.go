package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/periskope/chat/internal/domain"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, account.ID, account.Email, account.PasswordHash, account.CreatedAt)
	return err
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT id, email, password_hash, created_at FROM accounts WHERE id = $1", id)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT id, email, password_hash, created_at FROM accounts WHERE email = $1", email)
}

// CreateAccountWithProfile inserts the account and its profile row in one transaction.
func (r *AccountRepo) CreateAccountWithProfile(ctx context.Context, account *domain.Account, profile *domain.Profile) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO accounts (id, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4)`,
			account.ID, account.Email, account.PasswordHash, account.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting account: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_profiles (id, name, phone, description, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			profile.ID, profile.Name, profile.Phone, profile.Description, profile.UpdatedAt,
		); err != nil {
			return fmt.Errorf("inserting profile: %w", err)
		}
		return nil
	})
}

func (r *AccountRepo) scanAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &a, err
}
