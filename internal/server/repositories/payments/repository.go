package payments

import (
	"context"

	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	ListCompletedByUser(ctx context.Context, userID string) ([]models.Payment, error)
}
