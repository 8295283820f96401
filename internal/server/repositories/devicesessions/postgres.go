// Package devicesessions stores desktop-app login sessions. A session is
// open while logout_time is NULL; closed sessions are kept for history and
// their tokens are never reissued.
package devicesessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

const selectColumns = `SELECT id, user_id, device_id, device_name, ip_address, session_token, login_time, logout_time
		 FROM device_sessions`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.DeviceSession) (*models.DeviceSession, error) {
	query :=
		`INSERT INTO device_sessions (user_id, device_id, device_name, ip_address, session_token, login_time)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.DeviceID, s.DeviceName, s.IPAddress, s.SessionToken, s.LoginTime).Scan(&s.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.DeviceSession, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.DeviceSession, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE session_token = $1`, token)
}

// Close stamps the logout time of an open session. Closing an already
// closed session is a no-op.
func (r *PostgresRepository) Close(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE device_sessions SET logout_time = $2
		 WHERE id = $1 AND logout_time IS NULL`

	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.DeviceSession, error) {
	s := &models.DeviceSession{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.UserID, &s.DeviceID, &s.DeviceName, &s.IPAddress, &s.SessionToken, &s.LoginTime, &s.LogoutTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
