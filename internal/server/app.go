// Package server wires the labcms components together and runs the HTTP
// server until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/logging"
	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/dmitrijs2005/labcms/internal/server/config"
	"github.com/dmitrijs2005/labcms/internal/server/metrics"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/labcms/internal/server/revocation"
	"github.com/dmitrijs2005/labcms/internal/server/services"
	"github.com/dmitrijs2005/labcms/internal/server/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 10 * time.Second

// openDB is swapped in tests.
var openDB = dbx.OpenPostgres

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	denylist *revocation.Denylist
	metrics  *metrics.Metrics
	handler  http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, m repomanager.RepositoryManager) (*App, error) {
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	codec, err := auth.NewCodec(c.SecretKey,
		auth.WithIssuer(c.TokenIssuer),
		auth.WithAudience(c.TokenAudience),
		auth.WithTTL(c.TokenValidityDuration),
	)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	denylist := revocation.NewDenylist(m.Revocations(db), logger)
	if err := denylist.Refresh(ctx); err != nil {
		// not fatal, the scheduled refresh will retry
		logger.Warn(ctx, "initial denylist load failed", "error", err)
	}

	reg := prometheus.NewRegistry()
	mx := metrics.New(reg)

	srv := web.NewServer(web.Deps{
		Config:    c,
		Logger:    logger,
		Codec:     codec,
		Auth:      services.NewAuthService(db, m, logger),
		Denylist:  denylist,
		Documents: services.NewDocumentService(db, m),
		Uploads:   services.NewUploadService(c),
		Ready:     db,
		Metrics:   mx,
		Gatherer:  reg,
	})

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		denylist: denylist,
		metrics:  mx,
		handler:  srv,
	}, nil
}

// Handler exposes the root HTTP handler.
func (app *App) Handler() http.Handler { return app.handler }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startScheduler(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	if err := app.denylist.Schedule(ctx, c, app.config.DenylistRefreshInterval); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@every 15s", app.updateGauges); err != nil {
		return nil, fmt.Errorf("schedule gauges: %w", err)
	}
	app.updateGauges()
	c.Start()
	return c, nil
}

func (app *App) updateGauges() {
	app.metrics.RevokedTokens.Set(float64(app.denylist.Len()))
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "HTTP server listening", "addr", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
	<-stopped
}

// Run blocks until a signal arrives, the parent context is cancelled or the
// listener fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	sched, err := app.startScheduler(ctx)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		app.close(ctx)
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	<-sched.Stop().Done()
	app.close(ctx)
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close(ctx context.Context) {
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
}
