package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/documents"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/principals"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/revocations"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeRepoManager struct {
	principals principals.Repository
	documents  documents.Repository
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (f *fakeRepoManager) Principals(dbx.DBTX) principals.Repository { return f.principals }

func (f *fakeRepoManager) Documents(dbx.DBTX) documents.Repository { return f.documents }

func (f *fakeRepoManager) Revocations(dbx.DBTX) revocations.Repository { return nil }

type fakePrincipalsRepo struct {
	byEmail map[string]*models.Principal
	findErr error

	created   *models.Principal
	createErr error

	updatedEmail string
	updatedHash  string
	updateErr    error

	adminEmail string
	adminFlag  bool
}

func (f *fakePrincipalsRepo) Create(_ context.Context, p *models.Principal) (*models.Principal, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = "p-new"
	p.CreatedAt = time.Now()
	f.created = p
	return p, nil
}

func (f *fakePrincipalsRepo) FindByEmail(_ context.Context, email string) (*models.Principal, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakePrincipalsRepo) UpdatePassword(_ context.Context, email, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedEmail, f.updatedHash = email, hash
	return nil
}

func (f *fakePrincipalsRepo) SetAdmin(_ context.Context, email string, isAdmin bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.adminEmail, f.adminFlag = email, isAdmin
	return nil
}

type fakeDocumentsRepo struct {
	docs map[string]*models.Document
	err  error

	listLimit, listOffset int
	locked                []string
}

func newFakeDocumentsRepo() *fakeDocumentsRepo {
	return &fakeDocumentsRepo{docs: map[string]*models.Document{}}
}

func (f *fakeDocumentsRepo) Create(_ context.Context, d *models.Document) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	d.ID = "0b9e1c2a-4f0e-4a55-9d1e-000000000001"
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	f.docs[d.ID] = d
	return d, nil
}

func (f *fakeDocumentsRepo) Get(_ context.Context, collection, id string) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.docs[id]
	if !ok || d.Collection != collection {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

func (f *fakeDocumentsRepo) GetForUpdate(ctx context.Context, collection, id string) (*models.Document, error) {
	f.locked = append(f.locked, id)
	return f.Get(ctx, collection, id)
}

func (f *fakeDocumentsRepo) List(_ context.Context, collection string, limit, offset int) ([]*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.listLimit, f.listOffset = limit, offset
	out := make([]*models.Document, 0)
	for _, d := range f.docs {
		if d.Collection == collection {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocumentsRepo) Update(_ context.Context, d *models.Document) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	d.UpdatedAt = time.Now()
	f.docs[d.ID] = d
	return d, nil
}
