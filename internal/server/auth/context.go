package auth

import (
	"context"

	"github.com/dmitrijs2005/labcms/internal/server/models"
)

type identityKey struct{}

// ContextWithIdentity stores the authenticated principal on ctx.
func ContextWithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the principal stored by ContextWithIdentity.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*models.Identity)
	return id, ok && id != nil
}
