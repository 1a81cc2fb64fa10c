package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = models.Identity{ID: "7f8c2a1e-0000-4000-8000-000000000001", Email: "pi@lab.edu", IsAdmin: true}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newTestCodec(t *testing.T, opts ...CodecOption) *Codec {
	t.Helper()
	c, err := NewCodec("test-secret", opts...)
	require.NoError(t, err)
	return c
}

func TestNewCodec_MissingSecret(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "   "} {
		_, err := NewCodec(s)
		require.ErrorIs(t, err, common.ErrMissingSecret)
	}
}

func TestNewCodec_NonPositiveTTL(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("s", WithTTL(0))
	require.Error(t, err)
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, WithClock(fixedClock(now)))

	tok, exp, err := c.Issue(admin)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	claims, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.Equal(t, admin.Email, claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "labcms", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"labcms-admin"}, claims.Audience)
	assert.Equal(t, admin.ID, claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, &admin, claims.Identity())
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	a, _, err := c.Issue(admin)
	require.NoError(t, err)
	b, _, err := c.Issue(admin)
	require.NoError(t, err)

	ca, err := c.Decode(a)
	require.NoError(t, err)
	cb, err := c.Decode(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestIssue_RequiresID(t *testing.T) {
	t.Parallel()

	_, _, err := newTestCodec(t).Issue(models.Identity{Email: "x@y"})
	require.Error(t, err)
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, _, err := newTestCodec(t, WithClock(fixedClock(issued))).Issue(admin)
	require.NoError(t, err)

	later := newTestCodec(t, WithClock(fixedClock(issued.Add(25*time.Hour))))
	_, err = later.Decode(tok)
	require.ErrorIs(t, err, common.ErrTokenExpired)

	_, ok := later.Verify(tok)
	assert.False(t, ok)
}

func TestDecode_Rejections(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	good, _, err := c.Issue(admin)
	require.NoError(t, err)

	otherSecret, err := NewCodec("other-secret")
	require.NoError(t, err)
	forged, _, err := otherSecret.Issue(admin)
	require.NoError(t, err)

	wrongIss, _, err := newTestCodec(t, WithIssuer("elsewhere")).Issue(admin)
	require.NoError(t, err)
	wrongAud, _, err := newTestCodec(t, WithAudience("public")).Issue(admin)
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	require.Len(t, parts, 3)
	unsigned := noneToken(t)

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"two segments": parts[0] + "." + parts[1],
		"tampered sig": parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2])),
		"wrong secret": forged,
		"wrong issuer": wrongIss,
		"wrong aud":    wrongAud,
		"alg none":     unsigned,
		"hs512":        signWith(t, jwt.SigningMethodHS512, "test-secret"),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(tok)
			require.ErrorIs(t, err, common.ErrInvalidToken)
			_, ok := c.Verify(tok)
			assert.False(t, ok)
		})
	}
}

func TestDecode_MissingExpiry(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "labcms", Audience: jwt.ClaimStrings{"labcms-admin"}},
		UserID:           "u1",
		IsAdmin:          true,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newTestCodec(t).Decode(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RequiresAdmin(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	tok, _, err := c.Issue(models.Identity{ID: "u2", Email: "student@lab.edu", IsAdmin: false})
	require.NoError(t, err)

	claims, err := c.Decode(tok)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)

	_, ok := c.Verify(tok)
	assert.False(t, ok)
}

func TestVerify_Valid(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	tok, _, err := c.Issue(admin)
	require.NoError(t, err)

	claims, ok := c.Verify(tok)
	require.True(t, ok)
	assert.Equal(t, admin.Email, claims.Email)
}

func TestVerify_PanicIsRejection(t *testing.T) {
	t.Parallel()

	tok, _, err := newTestCodec(t).Issue(admin)
	require.NoError(t, err)

	c := newTestCodec(t, WithClock(func() time.Time { panic("clock failure") }))
	_, ok := c.Verify(tok)
	assert.False(t, ok)
}

func signWith(t *testing.T, m jwt.SigningMethod, secret string) string {
	t.Helper()
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "labcms",
			Audience:  jwt.ClaimStrings{"labcms-admin"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:  "u1",
		IsAdmin: true,
	}
	s, err := jwt.NewWithClaims(m, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func noneToken(t *testing.T) string {
	t.Helper()
	enc := base64.RawURLEncoding
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"iss": "labcms", "aud": "labcms-admin", "userId": "u1", "isAdmin": true,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return enc.EncodeToString(header) + "." + enc.EncodeToString(body) + "."
}
