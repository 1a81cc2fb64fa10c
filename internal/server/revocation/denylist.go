// Package revocation keeps the set of session tokens that were logged out
// before their natural expiry.
//
// The authoritative list lives in the revoked_tokens table. Each process holds
// an in-memory snapshot that the access gate reads without touching the
// database. The snapshot is updated immediately for revocations made by this
// process and reloaded on a schedule for revocations made elsewhere, so a
// token revoked on another instance stays usable for at most one refresh
// interval.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/labcms/internal/logging"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/revocations"
	"github.com/robfig/cron/v3"
)

type Denylist struct {
	repo   revocations.Repository
	logger logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewDenylist(repo revocations.Repository, logger logging.Logger) *Denylist {
	return &Denylist{
		repo:    repo,
		logger:  logger.With("module", "revocation"),
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Revoke persists the token id and adds it to the local snapshot.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	if err := d.repo.Create(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	d.mu.Lock()
	d.revoked[tokenID] = expiresAt
	d.mu.Unlock()
	return nil
}

func (d *Denylist) IsRevoked(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	d.mu.RLock()
	exp, ok := d.revoked[tokenID]
	d.mu.RUnlock()
	return ok && d.now().Before(exp)
}

// Len reports the snapshot size.
func (d *Denylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.revoked)
}

// Refresh merges the unexpired rows in the store into the snapshot. Local
// entries that have not expired are kept, so a Revoke that lands while the
// store is being read is not lost. On error the previous snapshot is kept.
func (d *Denylist) Refresh(ctx context.Context) error {
	now := d.now()
	rows, err := d.repo.ListActive(ctx, now)
	if err != nil {
		return fmt.Errorf("refresh denylist: %w", err)
	}

	next := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		next[r.TokenID] = r.ExpiresAt
	}

	d.mu.Lock()
	for id, exp := range d.revoked {
		if _, ok := next[id]; !ok && now.Before(exp) {
			next[id] = exp
		}
	}
	d.revoked = next
	d.mu.Unlock()
	return nil
}

// Purge deletes expired rows from the store and drops them from the snapshot.
func (d *Denylist) Purge(ctx context.Context) (int64, error) {
	now := d.now()
	n, err := d.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purge denylist: %w", err)
	}

	d.mu.Lock()
	for id, exp := range d.revoked {
		if !now.Before(exp) {
			delete(d.revoked, id)
		}
	}
	d.mu.Unlock()
	return n, nil
}

// Schedule registers the refresh and purge jobs on c. The caller owns the
// cron lifecycle.
func (d *Denylist) Schedule(ctx context.Context, c *cron.Cron, every time.Duration) error {
	if every <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", every)
	}

	if _, err := c.AddFunc("@every "+every.String(), func() {
		if err := d.Refresh(ctx); err != nil {
			d.logger.Error(ctx, "denylist refresh failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	if _, err := c.AddFunc("@hourly", func() {
		n, err := d.Purge(ctx)
		if err != nil {
			d.logger.Error(ctx, "denylist purge failed", "error", err)
			return
		}
		d.logger.Debug(ctx, "denylist purged", "rows", n)
	}); err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}
	return nil
}
