// Package main implements lib, the command-line client for the library service.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"library-client/internal/analytics"
	"library-client/internal/api"
	"library-client/internal/catalog"
	"library-client/internal/config"
	"library-client/internal/domain"
	"library-client/internal/observability"
	"library-client/internal/service"
	"library-client/internal/session"
	"library-client/internal/storage/sqlite"
)

var (
	// apiURL and analyticsURL override the configured service locations
	apiURL       string
	analyticsURL string
	version      = "dev"

	lib *app
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, domain.Message(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lib",
	Short: "Command-line client for the library service",
	Long: `lib talks to the library REST API and the analytics service.

Sign in once with "lib login"; the session is kept in a local SQLite
database and reused by later commands until you sign out or the server
rejects it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if apiURL != "" {
			cfg.APIBaseURL = apiURL
		}
		if analyticsURL != "" {
			cfg.AnalyticsURL = analyticsURL
		}
		observability.InitLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

		a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		lib = a
		return nil
	},
}

func init() {
	// runs after every command, failed ones included
	cobra.OnFinalize(func() {
		if lib != nil {
			lib.close()
			lib = nil
		}
	})

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "library API base URL (overrides LIBRARY_API_URL)")
	rootCmd.PersistentFlags().StringVar(&analyticsURL, "analytics", "", "analytics service URL (overrides ANALYTICS_API_URL)")
}

// app holds the client components shared by every command.
type app struct {
	cfg       *config.Config
	out       io.Writer
	db        *sql.DB
	client    *api.Client
	store     *session.Store
	cache     *catalog.Cache
	coord     *service.Coordinator
	admin     *service.Admin
	analytics *analytics.Client
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	db, err := config.NewSQLiteConnection(cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	repo, err := sqlite.NewSessionRepository(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	client, err := api.NewClient(cfg.APIBaseURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	if err != nil {
		db.Close()
		return nil, err
	}

	store := session.NewStore(client, session.WithRepository(repo))
	client.SetTokenSource(store)
	if _, err := store.Restore(ctx); err != nil {
		db.Close()
		return nil, err
	}

	cache := catalog.NewCache(client)

	return &app{
		cfg:       cfg,
		out:       out,
		db:        db,
		client:    client,
		store:     store,
		cache:     cache,
		coord:     service.NewCoordinator(client, store, cache),
		admin:     service.NewAdmin(client, store, cache),
		analytics: analytics.NewClient(cfg.AnalyticsURL),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
