// Package libraries stores the per-user materialized library. Expiration
// and activity columns are only written by the library sync; playtime is
// tracked on the same row and preserved across syncs.
package libraries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	query :=
		`SELECT user_id, game_id, expiration_date, is_active, accumulated_hours
		 FROM library_games
		 WHERE user_id = $1
		 ORDER BY game_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.LibraryEntry
	for rows.Next() {
		var e models.LibraryEntry
		if err := rows.Scan(&e.UserID, &e.GameID, &e.ExpirationDate, &e.IsActive, &e.AccumulatedHours); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Upsert writes the derived columns of an entry. AccumulatedHours of an
// existing row is kept.
func (r *PostgresRepository) Upsert(ctx context.Context, entry *models.LibraryEntry) error {
	query :=
		`INSERT INTO library_games (user_id, game_id, expiration_date, is_active)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, game_id) DO UPDATE
		 SET expiration_date = EXCLUDED.expiration_date,
		     is_active = EXCLUDED.is_active,
		     updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, entry.UserID, entry.GameID, entry.ExpirationDate, entry.IsActive); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExcept removes every row of the user whose game is not in keepGameIDs.
func (r *PostgresRepository) DeleteExcept(ctx context.Context, userID string, keepGameIDs []string) (int64, error) {
	query :=
		`DELETE FROM library_games
		 WHERE user_id = $1 AND NOT (game_id::text = ANY(string_to_array($2, ',')))`

	return r.execCount(ctx, query, userID, strings.Join(keepGameIDs, ","))
}

// DeleteExpired removes rows that expired at or before now or were marked inactive.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	query :=
		`DELETE FROM library_games
		 WHERE user_id = $1 AND (expiration_date <= $2 OR NOT is_active)`

	return r.execCount(ctx, query, userID, now)
}

func (r *PostgresRepository) ListActiveGames(ctx context.Context, userID string, now time.Time) ([]models.LibraryGame, error) {
	query :=
		`SELECT l.user_id, l.game_id, l.expiration_date, l.is_active, l.accumulated_hours,
		        g.name, g.image_main, g.image_banner, g.about, g.developer
		 FROM library_games l
		 JOIN games g ON g.id = l.game_id
		 WHERE l.user_id = $1 AND l.expiration_date > $2
		 ORDER BY g.name`

	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.LibraryGame
	for rows.Next() {
		var g models.LibraryGame
		if err := rows.Scan(&g.UserID, &g.GameID, &g.ExpirationDate, &g.IsActive, &g.AccumulatedHours,
			&g.Title, &g.ImagePath, &g.BannerPath, &g.Description, &g.Developer); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// AddPlaytime atomically adds hours to the owned game and returns the new total.
func (r *PostgresRepository) AddPlaytime(ctx context.Context, userID, gameID string, hours float64) (float64, error) {
	query :=
		`UPDATE library_games SET accumulated_hours = accumulated_hours + $3
		 WHERE user_id = $1 AND game_id::text = $2
		 RETURNING accumulated_hours`

	var total float64
	err := r.db.QueryRowContext(ctx, query, userID, gameID, hours).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
