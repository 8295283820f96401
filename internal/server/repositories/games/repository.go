package games

import (
	"context"

	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Game, error)
	ListEnabled(ctx context.Context) ([]models.Game, error)
	ListBySteamIDs(ctx context.Context, steamIDs []string) ([]models.Game, error)
	ListByTags(ctx context.Context, tags []string) ([]models.Game, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}
