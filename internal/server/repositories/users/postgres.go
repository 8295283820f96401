// Package users stores storefront accounts, including the pointer to the
// user's active desktop session.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

const selectColumns = `SELECT id, name, email, password_hash, is_verified, verification_token, token, active_session_id, created_at
		 FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (name, email, password_hash, verification_token)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.VerificationToken).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "users_email_key") {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE id = $1`, id)
}

// GetByIDForUpdate locks the user row until the surrounding transaction ends.
// Session mutations for one user are serialized through this lock.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE id = $1
		 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE verification_token = $1`, token)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE token = $1`, token)
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET is_verified = TRUE, verification_token = NULL
		 WHERE id = $1`

	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) SetToken(ctx context.Context, id string, token string) error {
	query :=
		`UPDATE users SET token = $2
		 WHERE id = $1`

	return r.execOne(ctx, query, id, token)
}

// SwapActiveSession moves the active session pointer from expected to next.
// It fails with common.ErrVersionConflict when the stored pointer is no
// longer expected.
func (r *PostgresRepository) SwapActiveSession(ctx context.Context, id string, expected, next *string) error {
	query :=
		`UPDATE users SET active_session_id = $2
		 WHERE id = $1 AND active_session_id IS NOT DISTINCT FROM $3`

	res, err := r.db.ExecContext(ctx, query, id, next, expected)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrVersionConflict
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsVerified,
		&user.VerificationToken, &user.Token, &user.ActiveSessionID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
