package web

import (
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/logging"
	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/dmitrijs2005/labcms/internal/server/metrics"
)

// Reason labels a gate decision in logs and metrics.
type Reason string

const (
	ReasonUnprotected   Reason = "unprotected"
	ReasonLoginPage     Reason = "login_page"
	ReasonMissingCookie Reason = "missing_cookie"
	ReasonInvalidToken  Reason = "invalid_token"
	ReasonAuthorized    Reason = "authorized"
)

// Decision is the outcome of the access gate for one request.
type Decision struct {
	Allow  bool
	Reason Reason
	// Claims is set only for ReasonAuthorized.
	Claims *auth.Claims
}

// RevocationChecker reports whether a token id was revoked. Implementations
// must answer from memory.
type RevocationChecker interface {
	IsRevoked(tokenID string) bool
}

// Gate decides whether a request may reach a protected admin page.
type Gate struct {
	codec    *auth.Codec
	denylist RevocationChecker
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewGate(codec *auth.Codec, denylist RevocationChecker, logger logging.Logger, m *metrics.Metrics) *Gate {
	return &Gate{codec: codec, denylist: denylist, logger: logger.With("module", "gate"), metrics: m}
}

// IsProtected reports whether p is /admin or lies under /admin/, either as
// sent or after cleaning. Either form being under the prefix is enough.
func IsProtected(p string) bool {
	return underPrefix(p) || underPrefix(path.Clean("/"+p))
}

func underPrefix(p string) bool {
	return p == common.ProtectedPrefix || strings.HasPrefix(p, common.ProtectedPrefix+"/")
}

// IsLoginPage tolerates a trailing slash.
func IsLoginPage(p string) bool {
	return path.Clean("/"+p) == common.LoginPath
}

// Decide evaluates path and cookie only. It performs no I/O.
func (g *Gate) Decide(p string, cookieValue string, hasCookie bool) Decision {
	switch {
	case !IsProtected(p):
		return Decision{Allow: true, Reason: ReasonUnprotected}
	case IsLoginPage(p):
		return Decision{Allow: true, Reason: ReasonLoginPage}
	case !hasCookie:
		return Decision{Reason: ReasonMissingCookie}
	}

	claims, ok := g.authorize(cookieValue)
	if !ok {
		return Decision{Reason: ReasonInvalidToken}
	}
	return Decision{Allow: true, Reason: ReasonAuthorized, Claims: claims}
}

func (g *Gate) authorize(token string) (*auth.Claims, bool) {
	claims, ok := g.codec.Verify(token)
	if !ok {
		return nil, false
	}
	if g.denylist != nil && g.denylist.IsRevoked(claims.ID) {
		return nil, false
	}
	return claims, true
}

// Middleware guards browser routes. Denied requests get a 303 to the login
// page and never reach next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value, has := sessionCookie(r)
		d := g.Decide(r.URL.Path, value, has)
		g.observe(r, d)

		if !d.Allow {
			http.Redirect(w, r, common.LoginPath, http.StatusSeeOther)
			return
		}
		if d.Claims != nil {
			r = r.WithContext(auth.ContextWithIdentity(r.Context(), d.Claims.Identity()))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin guards JSON routes with the same token rules as Middleware
// and answers 401 instead of redirecting.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value, has := sessionCookie(r)
		if !has {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		claims, ok := g.authorize(value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), claims.Identity())))
	})
}

func (g *Gate) observe(r *http.Request, d Decision) {
	if d.Reason == ReasonUnprotected {
		return
	}
	if g.metrics != nil {
		g.metrics.GateDecisionsTotal.WithLabelValues(string(d.Reason)).Inc()
	}
	if !d.Allow {
		g.logger.Info(r.Context(), "admin access redirected", "path", r.URL.Path, "reason", d.Reason)
	}
}

func sessionCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil {
		return "", false
	}
	return c.Value, true
}
