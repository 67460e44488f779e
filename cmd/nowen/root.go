package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nowen/nowen/internal/app"
	"github.com/nowen/nowen/internal/auth"
	"github.com/nowen/nowen/internal/config"
	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/version"
)

// globalFlags override the matching NOWEN_* environment variables.
type globalFlags struct {
	dbPath   string
	logLevel string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.dbPath, "db", "", "SQLite database path (overrides NOWEN_DB_PATH)")
	fs.StringVar(&g.logLevel, "log-level", "", "debug|info|warn|error (overrides NOWEN_LOG_LEVEL)")
}

func (g *globalFlags) config() (*config.Config, error) {
	cfg := config.Load()
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	if g.logLevel != "" {
		if !logger.ValidLevel(g.logLevel) {
			return nil, fmt.Errorf("invalid log level %q", g.logLevel)
		}
		cfg.LogLevel = g.logLevel
	}
	return cfg, nil
}

// openCore loads the config and opens the migrated database.
func (g *globalFlags) openCore() (*app.Core, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	return app.OpenCore(cfg, app.NewLogger(cfg))
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "nowen",
		Short:         "NOWEN bookmark dashboard backend",
		Long:          `NOWEN serves the bookmark dashboard API and checks the reachability of saved links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g)
		},
	}
	g.register(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(g),
		newCheckCmd(g),
		newMigrateCmd(g),
		newAdminCmd(g),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g)
		},
	}
}

func runServe(cmd *cobra.Command, g *globalFlags) error {
	core, err := g.openCore()
	if err != nil {
		return err
	}
	defer func() { _ = core.Logger.Sync() }()

	a, err := app.New(cmd.Context(), core)
	if err != nil {
		_ = core.Close()
		return err
	}
	return a.Run(cmd.Context())
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	var (
		ids  []string
		fail bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe bookmarks and print the JSON report",
		Long: `Runs the batch health check against the bookmarks in the database
(all of them, or only --id ones) and prints {results, summary} as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := g.openCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			report, err := core.NewHealthService(nil).CheckBookmarks(cmd.Context(), ids)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}

			if fail && unhealthy(report.Summary) > 0 {
				return fmt.Errorf("%d of %d bookmarks unhealthy", unhealthy(report.Summary), report.Summary.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "bookmark id to check (repeatable, default: all)")
	cmd.Flags().BoolVar(&fail, "fail", false, "exit non-zero when a bookmark is in error or timed out")
	return cmd
}

func unhealthy(s domain.BatchSummary) int {
	return s.Error + s.Timeout
}

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := g.openCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			fmt.Fprintf(cmd.OutOrStdout(), "✅ database %s is up to date\n", core.Config.DBPath)
			return nil
		},
	}
}

func newAdminCmd(g *globalFlags) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var username, password string
	reset := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an admin and revoke its sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < 6 {
				return errors.New("password must be at least 6 characters")
			}
			core, err := g.openCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			err = core.Auth.ResetPassword(cmd.Context(), username, password)
			if errors.Is(err, auth.ErrUnknownAdmin) {
				return fmt.Errorf("no admin named %q", username)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ password reset for %s\n", username)
			return nil
		},
	}
	reset.Flags().StringVar(&username, "username", "admin", "admin username")
	reset.Flags().StringVar(&password, "password", "", "new password")
	_ = reset.MarkFlagRequired("password")

	admin.AddCommand(reset)
	return admin
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
