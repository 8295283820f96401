package tickets

import (
	"context"

	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) (*models.SupportTicket, error)
}
