package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/repomanager"
)

// MinPasswordLength applies to passwords set through labctl.
const MinPasswordLength = 8

// PrincipalService manages accounts out-of-band from the web flow.
type PrincipalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPrincipalService(db *sql.DB, m repomanager.RepositoryManager) *PrincipalService {
	return &PrincipalService{db: db, repomanager: m}
}

// Create stores a new principal with a freshly hashed password.
func (s *PrincipalService) Create(ctx context.Context, email, password string, isAdmin bool) (*models.Principal, error) {
	email = NormalizeEmail(email)
	if err := validateAccount(email, password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	p, err := s.repomanager.Principals(s.db).Create(ctx, &models.Principal{
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("principal %s: %w", email, err)
		}
		return nil, fmt.Errorf("error creating principal: %w", err)
	}
	return p, nil
}

// SetPassword replaces the stored hash for an existing principal.
func (s *PrincipalService) SetPassword(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if err := validateAccount(email, password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.repomanager.Principals(s.db).UpdatePassword(ctx, email, hash); err != nil {
		return fmt.Errorf("error updating password for %s: %w", email, err)
	}
	return nil
}

// SetAdmin grants or withdraws admin-portal access.
func (s *PrincipalService) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	email = NormalizeEmail(email)
	if email == "" {
		return common.WithDetail(common.ErrBadRequest, "email is required")
	}
	if err := s.repomanager.Principals(s.db).SetAdmin(ctx, email, isAdmin); err != nil {
		return fmt.Errorf("error updating admin flag for %s: %w", email, err)
	}
	return nil
}

func validateAccount(email, password string) error {
	if email == "" {
		return common.WithDetail(common.ErrBadRequest, "email is required")
	}
	if len(password) < MinPasswordLength {
		return common.WithDetail(common.ErrBadRequest,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}
