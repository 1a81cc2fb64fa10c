package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {

	query :=
		`INSERT INTO documents (collection, data)
		 VALUES ($1, $2::jsonb)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, doc.Collection, string(doc.Data)).
		Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc, nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query :=
		`SELECT id, collection, data, created_at, updated_at FROM documents
		 WHERE collection = $1 AND id = $2
		 `
	return r.getOne(ctx, query, collection, id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, collection, id string) (*models.Document, error) {
	query :=
		`SELECT id, collection, data, created_at, updated_at FROM documents
		 WHERE collection = $1 AND id = $2
		 FOR UPDATE
		 `
	return r.getOne(ctx, query, collection, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Document, error) {
	doc := &models.Document{}
	var data []byte
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&doc.ID, &doc.Collection, &data, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	doc.Data = data
	return doc, nil
}

// List returns documents of one collection, newest first.
func (r *PostgresRepository) List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, error) {
	query :=
		`SELECT id, collection, data, created_at, updated_at FROM documents
		 WHERE collection = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3
		 `

	rows, err := r.db.QueryContext(ctx, query, collection, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Document, 0)
	for rows.Next() {
		doc := &models.Document{}
		var data []byte
		if err := rows.Scan(&doc.ID, &doc.Collection, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		doc.Data = data
		result = append(result, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query :=
		`UPDATE documents SET data = $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, doc.Collection, doc.ID, string(doc.Data)).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc, nil
}
