// Package user stores the accounts that own imported transactions.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cardledger/cardledger/internal/domain/common"
)

// User is an account created on first OAuth login.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Provider    string
	CreatedAt   time.Time
}

// Store is the persistence surface for accounts.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpsertByEmail(ctx context.Context, email, displayName, provider string) (*User, error)
}

// DB is the subset of pgxpool.Pool the user repository uses.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the Postgres implementation of Store.
type Repository struct {
	db DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a user repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail resolves an email to a stored account. Returns
// common.ErrUserNotFound for unknown emails.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, display_name, provider, created_at
		FROM users
		WHERE email = $1`

	var u User
	err := r.db.QueryRow(ctx, query, email).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.Provider, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertByEmail creates the account on first login and refreshes the display
// name on later ones.
func (r *Repository) UpsertByEmail(ctx context.Context, email, displayName, provider string) (*User, error) {
	query := `
		INSERT INTO users (email, display_name, provider)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET display_name = EXCLUDED.display_name
		RETURNING id, email, display_name, provider, created_at`

	var u User
	err := r.db.QueryRow(ctx, query, email, displayName, provider).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.Provider, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
