package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// requiredField names the one field every document of a collection must carry.
var requiredField = map[string]string{
	"people":       "name",
	"research":     "title",
	"publications": "title",
	"news":         "title",
	"vacancies":    "title",
}

// Collections lists the known collection names.
func Collections() []string {
	return []string{"people", "research", "publications", "news", "vacancies"}
}

// IsCollection reports whether name is a known collection.
func IsCollection(name string) bool {
	_, ok := requiredField[name]
	return ok
}

// DocumentService is the generic store behind the public and admin APIs.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m}
}

func (s *DocumentService) Create(ctx context.Context, collection string, data json.RawMessage) (*models.Document, error) {
	data, err := validateDocument(collection, data)
	if err != nil {
		return nil, err
	}

	doc, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{Collection: collection, Data: data})
	if err != nil {
		return nil, fmt.Errorf("error creating document: %w", err)
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	if !IsCollection(collection) {
		return nil, common.ErrUnknownCollection
	}
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Documents(s.db).Get(ctx, collection, id)
}

// List pages through a collection, newest first. A non-positive limit means
// DefaultListLimit; limits above MaxListLimit are clamped.
func (s *DocumentService) List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, error) {
	if !IsCollection(collection) {
		return nil, common.ErrUnknownCollection
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repomanager.Documents(s.db).List(ctx, collection, limit, offset)
}

// Update replaces a document's data. The row is locked for the duration of
// the transaction so concurrent saves serialise.
func (s *DocumentService) Update(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error) {
	data, err := validateDocument(collection, data)
	if err != nil {
		return nil, err
	}
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}

	var updated *models.Document
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Documents(tx)
		doc, err := repo.GetForUpdate(ctx, collection, id)
		if err != nil {
			return err
		}
		doc.Data = data
		updated, err = repo.Update(ctx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func validateDocument(collection string, data json.RawMessage) (json.RawMessage, error) {
	field, ok := requiredField[collection]
	if !ok {
		return nil, common.ErrUnknownCollection
	}

	trimmed := bytes.TrimSpace(data)
	var obj map[string]any
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &obj) != nil {
		return nil, common.WithDetail(common.ErrValidation, "document must be a JSON object")
	}

	v, ok := obj[field].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, common.WithDetail(common.ErrValidation, field+" is required")
	}

	return json.RawMessage(trimmed), nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
