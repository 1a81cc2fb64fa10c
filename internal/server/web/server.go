// Package web is the HTTP surface of labcms: the admin login flow, the access
// gate in front of the admin pages, the public and admin JSON APIs, and the
// operational endpoints.
package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/labcms/internal/logging"
	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/dmitrijs2005/labcms/internal/server/config"
	"github.com/dmitrijs2005/labcms/internal/server/metrics"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Authenticator checks admin credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
}

// Denylist records logged-out tokens.
type Denylist interface {
	RevocationChecker
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// DocumentStore is the generic resource store.
type DocumentStore interface {
	Create(ctx context.Context, collection string, data json.RawMessage) (*models.Document, error)
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, error)
	Update(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error)
}

// Uploader stores an image and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, size int64, filename string) (*models.Upload, error)
}

// ReadyProbe is satisfied by *sql.DB.
type ReadyProbe interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of Server. Metrics and Gatherer may be nil, in
// which case a private registry is used.
type Deps struct {
	Config    *config.Config
	Logger    logging.Logger
	Codec     *auth.Codec
	Auth      Authenticator
	Denylist  Denylist
	Documents DocumentStore
	Uploads   Uploader
	Ready     ReadyProbe
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

type Server struct {
	router   chi.Router
	config   *config.Config
	logger   logging.Logger
	codec    *auth.Codec
	auth     Authenticator
	denylist Denylist
	docs     DocumentStore
	uploads  Uploader
	ready    ReadyProbe
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	gate     *Gate
	sessions *SessionIssuer
	limiter  *IPRateLimiter
	pages    *pages
}

func NewServer(d Deps) *Server {
	if d.Metrics == nil {
		reg := prometheus.NewRegistry()
		d.Metrics = metrics.New(reg)
		d.Gatherer = reg
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   d.Config,
		logger:   d.Logger.With("module", "web"),
		codec:    d.Codec,
		auth:     d.Auth,
		denylist: d.Denylist,
		docs:     d.Documents,
		uploads:  d.Uploads,
		ready:    d.Ready,
		metrics:  d.Metrics,
		gatherer: d.Gatherer,
		sessions: NewSessionIssuer(d.Codec, d.Config.Production),
		limiter:  NewIPRateLimiter(d.Config.LoginRatePerSecond, d.Config.LoginRateBurst),
		pages:    mustParsePages(),
	}
	var checker RevocationChecker
	if d.Denylist != nil {
		checker = d.Denylist
	}
	s.gate = NewGate(d.Codec, checker, d.Logger, d.Metrics)

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(capturePeer)
	r.Use(middleware.RealIP)
	r.Use(middleware.CleanPath)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Instrument)
	r.Use(s.gate.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler(s.gatherer))

	// Browser pages. The gate middleware above has already run.
	r.Get("/admin/login", s.handleLoginPage)
	r.Get("/admin/login/", s.handleLoginPage)
	r.Get("/admin", s.handleAdminPage)
	r.Get("/admin/{collection}", s.handleAdminPage)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.limiter.Middleware(s.onRateLimited)).Post("/login", s.handleLogin)
			r.Get("/session", s.handleSession)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.gate.RequireAdmin)
			r.Post("/uploads", s.handleUpload)
			r.Get("/{collection}", s.handleListDocuments)
			r.Post("/{collection}", s.handleCreateDocument)
			r.Get("/{collection}/{id}", s.handleGetDocument)
			r.Put("/{collection}/{id}", s.handleUpdateDocument)
		})

		r.Get("/{collection}", s.handleListDocuments)
		r.Get("/{collection}/{id}", s.handleGetDocument)
	})
}

// respondErr writes the mapped error and logs anything that became a 500.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"path", r.URL.Path, "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
	writeError(w, status, msg)
}
