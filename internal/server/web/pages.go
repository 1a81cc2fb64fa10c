package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/dmitrijs2005/labcms/internal/server/services"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	login *template.Template
	admin *template.Template
}

func mustParsePages() *pages {
	return &pages{
		login: template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/login.html")),
		admin: template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/admin.html")),
	}
}

type adminPageData struct {
	User        *models.Identity
	Collection  string
	Collections []string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.pages.login, nil)
}

// handleAdminPage serves the shell for /admin and /admin/{collection}. The
// gate has already authorised the request.
func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if collection != "" && !services.IsCollection(collection) {
		http.NotFound(w, r)
		return
	}

	user, _ := auth.IdentityFromContext(r.Context())
	s.render(w, r, s.pages.admin, adminPageData{
		User:        user,
		Collection:  collection,
		Collections: services.Collections(),
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error(r.Context(), "template render failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
