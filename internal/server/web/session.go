package web

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/dmitrijs2005/labcms/internal/server/models"
)

// SessionIssuer turns a verified principal into the admin-token cookie.
type SessionIssuer struct {
	codec  *auth.Codec
	secure bool
}

func NewSessionIssuer(codec *auth.Codec, secure bool) *SessionIssuer {
	return &SessionIssuer{codec: codec, secure: secure}
}

// Issue mints a token and sets it as the session cookie. The token is never
// written to the body.
func (s *SessionIssuer) Issue(w http.ResponseWriter, id models.Identity) error {
	token, exp, err := s.codec.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(token, int(s.codec.TTL().Seconds()), exp))
	return nil
}

// Clear expires the session cookie.
func (s *SessionIssuer) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1, time.Unix(0, 0)))
}

func (s *SessionIssuer) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
