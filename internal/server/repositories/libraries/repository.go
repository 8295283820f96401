package libraries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.LibraryEntry, error)
	Upsert(ctx context.Context, entry *models.LibraryEntry) error
	DeleteExcept(ctx context.Context, userID string, keepGameIDs []string) (int64, error)
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
	ListActiveGames(ctx context.Context, userID string, now time.Time) ([]models.LibraryGame, error)
	AddPlaytime(ctx context.Context, userID, gameID string, hours float64) (float64, error)
}
