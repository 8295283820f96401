// Package games reads catalog metadata. List-valued parameters are passed as
// comma-joined strings and expanded with string_to_array on the server.
package games

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

const selectColumns = `SELECT id, name, price, steam_id, array_to_string(tags, ','), image_main, image_banner, about, developer, system_requirements, is_enabled
		 FROM games`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	query := selectColumns + `
		 WHERE id::text = $1`

	g, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) ListEnabled(ctx context.Context) ([]models.Game, error) {
	query := selectColumns + `
		 WHERE is_enabled
		 ORDER BY name`

	return r.list(ctx, query)
}

// ListBySteamIDs returns enabled games with the given steam ids in the
// order the ids were given. Unknown ids are skipped.
func (r *PostgresRepository) ListBySteamIDs(ctx context.Context, steamIDs []string) ([]models.Game, error) {
	query := selectColumns + `
		 WHERE is_enabled AND steam_id = ANY(string_to_array($1, ','))`

	found, err := r.list(ctx, query, strings.Join(steamIDs, ","))
	if err != nil {
		return nil, err
	}

	bySteamID := make(map[string]models.Game, len(found))
	for _, g := range found {
		bySteamID[g.SteamID] = g
	}
	ordered := make([]models.Game, 0, len(found))
	for _, id := range steamIDs {
		if g, ok := bySteamID[id]; ok {
			ordered = append(ordered, g)
		}
	}
	return ordered, nil
}

// ListByTags returns enabled games carrying at least one of tags.
func (r *PostgresRepository) ListByTags(ctx context.Context, tags []string) ([]models.Game, error) {
	query := selectColumns + `
		 WHERE is_enabled AND tags && string_to_array($1, ',')
		 ORDER BY name`

	return r.list(ctx, query, strings.Join(tags, ","))
}

// ExistingIDs reports which of ids name a catalog game.
func (r *PostgresRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	query :=
		`SELECT id FROM games
		 WHERE id::text = ANY(string_to_array($1, ','))`

	rows, err := r.db.QueryContext(ctx, query, strings.Join(ids, ","))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*models.Game, error) {
	g := &models.Game{}
	var tags string
	if err := row.Scan(&g.ID, &g.Name, &g.Price, &g.SteamID, &tags, &g.ImageMain, &g.ImageBanner,
		&g.About, &g.Developer, &g.SystemRequirements, &g.IsEnabled); err != nil {
		return nil, err
	}
	if tags != "" {
		g.Tags = strings.Split(tags, ",")
	}
	return g, nil
}
