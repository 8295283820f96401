package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/repomanager"
)

// TopSteamIDs is the curated order of the storefront's featured games.
var TopSteamIDs = []string{"2651280", "271590", "2050650", "2322010"}

// CatalogService serves read-only game metadata.
type CatalogService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{db: db, repomanager: m}
}

func (s *CatalogService) GetGameByID(ctx context.Context, id string) (*models.Game, error) {
	if id == "" {
		return nil, common.NewValidationError("id", "game id is required")
	}
	g, err := s.repomanager.Games(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting game: %w", err)
	}
	return g, nil
}

func (s *CatalogService) ListGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.repomanager.Games(s.db).ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing games: %w", err)
	}
	return games, nil
}

func (s *CatalogService) TopGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.repomanager.Games(s.db).ListBySteamIDs(ctx, TopSteamIDs)
	if err != nil {
		return nil, fmt.Errorf("error listing top games: %w", err)
	}
	return games, nil
}

// GamesByTags returns enabled games carrying any of tags.
func (s *CatalogService) GamesByTags(ctx context.Context, tags []string) ([]models.Game, error) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return nil, common.NewValidationError("tags", "at least one tag is required")
	}

	games, err := s.repomanager.Games(s.db).ListByTags(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("error listing games by tags: %w", err)
	}
	return games, nil
}
