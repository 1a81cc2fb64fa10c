package documents

import (
	"context"

	"github.com/dmitrijs2005/labcms/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	GetForUpdate(ctx context.Context, collection, id string) (*models.Document, error)
	List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) (*models.Document, error)
}
