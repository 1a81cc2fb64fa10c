package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	before := time.Now()
	rec := env.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@lab.org", "password": "correct",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"id": adminID.ID, "email": adminID.Email, "isAdmin": true}, body["user"])
	assert.NotContains(t, rec.Body.String(), "token")

	c := sessionCookieFrom(rec)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 86400, c.MaxAge)
	assert.False(t, c.Secure)

	claims, err := env.codec.Decode(c.Value)
	require.NoError(t, err)
	assert.Equal(t, adminID, *claims.Identity())
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 24*time.Hour, lifetime)
	assert.WithinDuration(t, before.Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	assert.Contains(t, scrapeMetrics(t, env), `labcms_logins_total{outcome="success"} 1`)
}

func TestLogin_SecureCookieInProduction(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Production = true })

	rec := env.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a", "password": "b"}))
	require.Equal(t, http.StatusOK, rec.Code)
	c := sessionCookieFrom(rec)
	require.NotNil(t, c)
	assert.True(t, c.Secure)
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not admin", common.ErrForbidden, http.StatusForbidden, "admin access required"},
		{"wrong password", common.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"missing email", common.WithDetail(common.ErrBadRequest, "email is required"), http.StatusBadRequest, "email is required"},
		{"store down", common.ErrorInternal, http.StatusInternalServerError, "internal server error"},
		{"unexpected", errBoom, http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.auth.err = tc.err

			rec := env.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
				"email": "admin@lab.org", "password": "whatever",
			}))
			assert.Equal(t, tc.status, rec.Code)
			assert.Nil(t, sessionCookieFrom(rec))

			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(http.MethodPost, "/api/auth/login", "{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.auth.calls)

	huge := `{"email":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	rec = env.do(jsonRequest(http.MethodPost, "/api/auth/login", huge))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.LoginRateBurst = 2
		c.LoginRatePerSecond = 0.001
	})
	env.auth.err = common.ErrInvalidCredentials

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a", "password": "b"})
		req.RemoteAddr = "198.51.100.7:5555"
		codes = append(codes, env.do(req).Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)

	other := jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a", "password": "b"})
	other.RemoteAddr = "198.51.100.8:5555"
	assert.Equal(t, http.StatusUnauthorized, env.do(other).Code)

	assert.Contains(t, scrapeMetrics(t, env), `labcms_logins_total{outcome="rate_limited"} 1`)
}

func TestLogin_RateLimitIgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.LoginRateBurst = 2
		c.LoginRatePerSecond = 0.001
	})
	env.auth.err = common.ErrInvalidCredentials

	limited := 0
	for i := 0; i < 20; i++ {
		req := jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a", "password": "b"})
		req.RemoteAddr = "198.51.100.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		if env.do(req).Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 18, limited)
}

func TestSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isAuthenticated"])
	assert.NotEmpty(t, body["error"])

	rec = env.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), "garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := env.token(t, adminID)
	rec = env.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), tok))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["isAuthenticated"])
	assert.Equal(t, adminID.Email, body["user"].(map[string]any)["email"])
}

func TestSession_Revoked(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, adminID)
	claims, err := env.codec.Decode(tok)
	require.NoError(t, err)
	env.denylist.revoked[claims.ID] = claims.ExpiresAt.Time

	rec := env.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), tok))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RevokesAndClears(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, adminID)

	rec := env.do(withCookie(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), tok))
	require.Equal(t, http.StatusOK, rec.Code)

	c := sessionCookieFrom(rec)
	require.NotNil(t, c)
	assert.Equal(t, "", c.Value)
	assert.Less(t, c.MaxAge, 0)

	claims, err := env.codec.Decode(tok)
	require.NoError(t, err)
	assert.True(t, env.denylist.IsRevoked(claims.ID))

	// The same cookie no longer opens admin pages.
	rec = env.do(withCookie(httptest.NewRequest(http.MethodGet, "/admin", nil), tok))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLogout_WithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, sessionCookieFrom(rec))
	assert.Empty(t, env.denylist.revoked)
}

func TestLogout_RevokeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.denylist.err = errBoom

	rec := env.do(withCookie(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), env.token(t, adminID)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotNil(t, sessionCookieFrom(rec))
}
