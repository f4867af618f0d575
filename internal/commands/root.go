// Package commands implements the importctl command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/echo-import/internal/domain/import/service"
	"github.com/FACorreiaa/echo-import/pkg/db"
)

// Version is set at build time.
var Version = "dev"

type globalFlags struct {
	dbPath         string
	owner          string
	currency       string
	signConvention string
	verbose        bool
}

// app holds what a subcommand needs once the database is open.
type app struct {
	store   *repository.SQLiteStore
	service *importservice.ImportService
	logger  *slog.Logger
	close   func() error
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "importctl",
		Level:           level,
	})
	return slog.New(handler)
}

func openApp(ctx context.Context, flags *globalFlags, logger *slog.Logger) (*app, error) {
	convention, err := normalizer.ParseSignConvention(flags.signConvention)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.OpenSQLite(flags.dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, sqlDB, goose.DialectSQLite3, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	store := repository.NewSQLiteStore(sqlDB)
	svc := importservice.NewImportService(store, logger).WithOptions(importservice.Options{
		SignConvention: convention,
		Currency:       flags.currency,
	})
	return &app{store: store, service: svc, logger: logger, close: sqlDB.Close}, nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "importctl",
		Short:   "Preview and import bank statements into a local database",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.dbPath, "db", "echo-import.db", "SQLite database path")
	pf.StringVar(&flags.owner, "owner", "local", "owner id the imports belong to")
	pf.StringVar(&flags.currency, "currency", "EUR", "ISO 4217 currency of imported amounts")
	pf.StringVar(&flags.signConvention, "sign-convention", string(normalizer.NegativeIsIncome),
		"how amount signs map to kinds (negative_is_income or negative_is_expense)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newPreviewCommand(flags),
		newImportCommand(flags),
		newLogsCommand(flags),
	)
	return rootCmd
}

// withApp opens the database for the duration of run.
func withApp(cmd *cobra.Command, flags *globalFlags, run func(*app) error) error {
	logger := newLogger(cmd.ErrOrStderr(), flags.verbose)
	a, err := openApp(cmd.Context(), flags, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("failed to close database", slog.Any("error", err))
		}
	}()
	return run(a)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
