package devicesessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.DeviceSession) (*models.DeviceSession, error)
	GetByID(ctx context.Context, id string) (*models.DeviceSession, error)
	GetByToken(ctx context.Context, token string) (*models.DeviceSession, error)
	Close(ctx context.Context, id string, at time.Time) error
}
