package principals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Principal) (*models.Principal, error) {

	query :=
		`INSERT INTO principals (email, password_hash, is_admin)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		p.Email, p.PasswordHash, p.IsAdmin).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

// FindByEmail matches case-insensitively; callers still normalise the
// address before calling.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	query :=
		`SELECT id, email, password_hash, is_admin, created_at FROM principals
		 WHERE lower(email) = lower($1)
		 `

	p := &models.Principal{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.IsAdmin, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	query :=
		`UPDATE principals SET password_hash = $2
		 WHERE lower(email) = lower($1)
		 `

	return r.execOne(ctx, query, email, passwordHash)
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	query :=
		`UPDATE principals SET is_admin = $2
		 WHERE lower(email) = lower($1)
		 `

	return r.execOne(ctx, query, email, isAdmin)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
