package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/server/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool             `json:"success"`
	User    *models.Identity `json:"user"`
}

type sessionResponse struct {
	IsAuthenticated bool             `json:"isAuthenticated"`
	User            *models.Identity `json:"user,omitempty"`
	Error           string           `json:"error,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.loginOutcome("bad_request")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.loginOutcome(loginOutcomeFor(err))
		if !errors.Is(err, common.ErrBadRequest) {
			s.logger.Warn(r.Context(), "admin login rejected", "reason", loginOutcomeFor(err))
		}
		s.respondErr(w, r, err)
		return
	}

	if err := s.sessions.Issue(w, *id); err != nil {
		s.loginOutcome("error")
		s.respondErr(w, r, err)
		return
	}

	s.loginOutcome("success")
	s.logger.Info(r.Context(), "admin login", "user_id", id.ID)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, User: id})
}

func loginOutcomeFor(err error) string {
	switch {
	case errors.Is(err, common.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

func (s *Server) loginOutcome(outcome string) {
	s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.loginOutcome("rate_limited")
	writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
}

// handleSession reports the identity behind the cookie. Every token failure
// collapses into one 401.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	value, has := sessionCookie(r)
	if !has {
		writeJSON(w, http.StatusUnauthorized, sessionResponse{Error: "no active session"})
		return
	}

	claims, err := s.codec.Decode(value)
	if err != nil || (s.denylist != nil && s.denylist.IsRevoked(claims.ID)) {
		writeJSON(w, http.StatusUnauthorized, sessionResponse{Error: "invalid session"})
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{IsAuthenticated: true, User: claims.Identity()})
}

// handleLogout revokes the presented token, if any is valid, and always
// clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)

	value, has := sessionCookie(r)
	if has && s.denylist != nil {
		if claims, err := s.codec.Decode(value); err == nil {
			if err := s.denylist.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				s.respondErr(w, r, err)
				return
			}
			s.logger.Info(r.Context(), "admin logout", "user_id", claims.UserID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
