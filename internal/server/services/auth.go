// Package services contains server-side business logic: credential checks
// for the admin portal, principal management, the document store and media
// uploads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/logging"
	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/repomanager"
)

// AuthService verifies admin credentials against the principal store.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "auth"),
	}
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate returns the identity of an administrator whose password
// matches. Unknown email and wrong password are indistinguishable to the
// caller; a known non-admin account yields common.ErrForbidden.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, common.WithDetail(common.ErrBadRequest, "email is required")
	}
	if password == "" {
		return nil, common.WithDetail(common.ErrBadRequest, "password is required")
	}

	repo := s.repomanager.Principals(s.db)
	p, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Keep the response time close to the found-account path.
			auth.VerifyPassword(s.getDummyHash(), password)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "principal lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !p.IsAdmin {
		return nil, common.ErrForbidden
	}

	if !auth.VerifyPassword(p.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	return p.Identity(), nil
}

func (s *AuthService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := auth.HashPassword("labcms-timing-equaliser")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
