package revocations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/labcms/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, tokenID string, expiresAt time.Time) error
	ListActive(ctx context.Context, now time.Time) ([]models.RevokedToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
