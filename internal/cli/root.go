// Package cli implements labctl, the operator tool for managing admin
// accounts and the database schema out-of-band from the web portal.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/labcms/internal/dbx"
	"github.com/dmitrijs2005/labcms/internal/logging"
	"github.com/dmitrijs2005/labcms/internal/server/config"
	"github.com/dmitrijs2005/labcms/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// Seams for tests.
var (
	openDB     = dbx.OpenPostgres
	newManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

type options struct {
	dsn      string
	logLevel string
	logger   logging.Logger
}

// defaultDSN mirrors the server: built-in default, then LAB_DATABASE_DSN.
func defaultDSN() string {
	if v := os.Getenv(config.EnvDatabaseDSN); v != "" {
		return v
	}
	c := &config.Config{}
	c.LoadDefaults()
	return c.DatabaseDSN
}

// NewRootCmd creates the root cobra command for labctl.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "labctl",
		Short: "Manage labcms admin accounts and schema",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), opts.logLevel)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.dsn, "dsn", defaultDSN(), "PostgreSQL DSN (or "+config.EnvDatabaseDSN+" env)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newAdminCmd(opts),
		newMigrateCmd(opts),
		newHashPasswordCmd(),
	)

	return root
}

// withDB opens the pool, applies migrations and hands both to fn. The pool
// is closed afterwards.
func withDB(ctx context.Context, opts *options, fn func(db *sql.DB, m repomanager.RepositoryManager) error) error {
	db, err := openDB(opts.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	m := newManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return err
	}
	return fn(db, m)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
