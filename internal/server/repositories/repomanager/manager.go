package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/documents"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/principals"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/revocations"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Principals(db dbx.DBTX) principals.Repository
	Documents(db dbx.DBTX) documents.Repository
	Revocations(db dbx.DBTX) revocations.Repository
}
