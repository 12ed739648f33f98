package postgres

import (
	"context"
	"errors"
	"fmt"

	"cantor/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account into the database.
func (r *AccountRepo) Create(ctx context.Context, a *ports.Account) error {
	query := `INSERT INTO accounts (id, email, fullname, password_hash, disabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Email, a.Fullname, a.PasswordHash, a.Disabled, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByEmail fetches an account by email. Returns nil, nil when absent.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*ports.Account, error) {
	query := `SELECT id, email, fullname, password_hash, disabled, created_at
		FROM accounts WHERE email = $1`

	a := &ports.Account{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&a.ID, &a.Email, &a.Fullname, &a.PasswordHash, &a.Disabled, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// GetByID fetches an account by its UUID. Returns nil, nil when absent.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*ports.Account, error) {
	query := `SELECT id, email, fullname, password_hash, disabled, created_at
		FROM accounts WHERE id = $1`

	a := &ports.Account{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Email, &a.Fullname, &a.PasswordHash, &a.Disabled, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// Delete removes an account record.
func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
