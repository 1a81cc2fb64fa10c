package principals

import (
	"context"

	"github.com/dmitrijs2005/labcms/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Principal) (*models.Principal, error)
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
	UpdatePassword(ctx context.Context, email string, passwordHash string) error
	SetAdmin(ctx context.Context, email string, isAdmin bool) error
}
