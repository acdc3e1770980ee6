// Package commands implements the cashflowctl command tree.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cashflow/internal/backend"
	"cashflow/internal/cli"
	"cashflow/internal/config"
	applog "cashflow/internal/log"
	"cashflow/internal/report"
	"cashflow/internal/storage"
	"cashflow/internal/storage/postgres"
)

// Opener opens the configured store for one command run.
type Opener func(ctx context.Context, stderr io.Writer) (*backend.BackendResult, error)

// Migrator applies schema migrations for the configured backend.
type Migrator func(ctx context.Context, stdout, stderr io.Writer) error

type app struct {
	open    Opener
	migrate Migrator
	engine  []report.Option
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{open: openFromEnv, migrate: migrateFromEnv})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cashflowctl",
		Short: "Expense and income reports from the command line",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSummaryCommand(a),
		newCategoriesCommand(a),
		newCashflowCommand(a),
		newTrendCommand(a),
		newExportCommand(a),
		newMigrateCommand(a),
	)

	return rootCmd
}

// withStore opens the backend, runs fn and releases the backend.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, store storage.Store) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := a.open(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("closing backend: %w", cerr)
		}
	}()
	return fn(ctx, res.Store)
}

func (a *app) newEngine(store storage.AggregateReader) *report.Engine {
	return report.NewEngine(store, a.engine...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadConfig reads .env and the environment. The logger writes to stderr so
// stdout stays machine readable.
func loadConfig(stderr io.Writer) (*config.Config, *applog.Logger, error) {
	if err := cli.LoadEnvFile(); err != nil {
		return nil, nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentCLI,
		Output:    stderr,
	})
	applog.SetDefault(logger)
	return cfg, logger, nil
}

func openFromEnv(ctx context.Context, stderr io.Writer) (*backend.BackendResult, error) {
	cfg, logger, err := loadConfig(stderr)
	if err != nil {
		return nil, err
	}
	return cli.OpenBackend(ctx, cfg, logger)
}

func migrateFromEnv(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, logger, err := loadConfig(stderr)
	if err != nil {
		return err
	}
	switch backend.BackendType(cfg.DataBackend) {
	case backend.SQLiteBackend:
		version, err := storage.RunMigrations(storage.SQLiteDSN(cfg.SQLiteDBPath))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "sqlite schema at version %d\n", version)
	case backend.PostgresBackend:
		if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "postgres schema up to date")
	default:
		fmt.Fprintf(stdout, "%s backend has no schema\n", cfg.DataBackend)
	}
	logger.InfoContext(ctx, "Migrations finished", applog.FieldOperation, applog.OpMigrate, "backend", cfg.DataBackend)
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
