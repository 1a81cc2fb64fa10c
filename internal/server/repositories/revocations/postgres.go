package revocations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create is idempotent: revoking the same token twice keeps the first row.
func (r *PostgresRepository) Create(ctx context.Context, tokenID string, expiresAt time.Time) error {

	query :=
		`INSERT INTO revoked_tokens (token_id, expires_at)
		 VALUES ($1, $2)
		 ON CONFLICT (token_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, tokenID, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, now time.Time) ([]models.RevokedToken, error) {
	query :=
		`SELECT token_id, expires_at, revoked_at FROM revoked_tokens
		 WHERE expires_at > $1
		 `

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.RevokedToken
	for rows.Next() {
		var t models.RevokedToken
		if err := rows.Scan(&t.TokenID, &t.ExpiresAt, &t.RevokedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
