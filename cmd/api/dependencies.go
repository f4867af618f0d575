package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/pressly/goose/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	importhandler "github.com/FACorreiaa/echo-import/internal/domain/import/handler"
	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	importrepo "github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/echo-import/internal/domain/import/service"
	"github.com/FACorreiaa/echo-import/pkg/config"
	"github.com/FACorreiaa/echo-import/pkg/cron"
	"github.com/FACorreiaa/echo-import/pkg/db"
	"github.com/FACorreiaa/echo-import/pkg/interceptors"
	"github.com/FACorreiaa/echo-import/pkg/metrics"
	"github.com/FACorreiaa/echo-import/pkg/storage"
	"github.com/FACorreiaa/echo-import/pkg/tracing"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Databases; exactly one is set depending on the configured driver.
	DB       *db.DB
	SQLiteDB *sql.DB

	Registry       *prometheus.Registry
	ImportMetrics  *metrics.ImportMetrics
	TracerProvider *sdktrace.TracerProvider // nil when tracing is disabled

	ImportRepo    importrepo.Store
	FileStorage   storage.Storage
	ImportService *importservice.ImportService
	RateLimiter   *interceptors.RateLimiter
	Scheduler     *cron.Scheduler
	ImportHandler *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase connects to the configured database, runs migrations and
// builds the import store on top of it.
func (d *Dependencies) initDatabase(ctx context.Context) error {
	switch d.Config.Database.Driver {
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(d.Config.Database.SQLitePath)
		if err != nil {
			return err
		}
		d.SQLiteDB = sqlDB
		if err := db.Migrate(ctx, sqlDB, goose.DialectSQLite3, d.Logger); err != nil {
			return err
		}
		d.ImportRepo = importrepo.NewSQLiteStore(sqlDB)
	default:
		database, err := db.New(ctx, db.Config{
			DSN:             d.Config.Database.DSN(),
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 10 * time.Minute,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.DB = database
		if err := d.DB.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		d.ImportRepo = importrepo.NewPostgresStore(d.DB.Pool)
	}

	d.Logger.Info("database connected and migrations completed successfully",
		slog.String("driver", d.Config.Database.Driver))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.ImportMetrics = metrics.NewImportMetrics(d.Registry)

	convention, err := normalizer.ParseSignConvention(d.Config.Import.SignConvention)
	if err != nil {
		return err
	}

	fileStorage, err := storage.New(ctx, storage.Config{
		Type:      storage.StorageType(d.Config.Storage.Type),
		LocalPath: d.Config.Storage.LocalPath,
		GCSBucket: d.Config.Storage.GCSBucket,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	merchants := normalizer.NewMerchantNamer()
	for _, b := range d.Config.Import.MerchantBrands {
		if err := merchants.AddBrand(b.Pattern, b.Name); err != nil {
			return fmt.Errorf("invalid merchant brand %q: %w", b.Pattern, err)
		}
	}

	d.ImportService = importservice.NewImportService(d.ImportRepo, d.Logger).
		WithOptions(importservice.Options{
			MaxFileBytes:   d.Config.Import.MaxFileBytes,
			PreviewRows:    d.Config.Import.PreviewRows,
			SignConvention: convention,
			Currency:       d.Config.Import.Currency,
		}).
		WithStorage(d.FileStorage).
		WithMetrics(d.ImportMetrics).
		WithMerchantNamer(merchants)

	if d.Config.Observability.TracingEnabled {
		d.TracerProvider = tracing.NewProvider(tracing.Config{
			ServiceName: "echo-import",
			SampleRatio: d.Config.Observability.TraceSampleRatio,
		}, d.Logger)
		d.ImportService.WithTracer(d.TracerProvider.Tracer(importservice.TracerName))
	}

	d.RateLimiter = interceptors.NewRateLimiter(
		float64(d.Config.Server.RateLimitPerSecond),
		d.Config.Server.RateLimitBurst,
	)

	d.Scheduler = cron.NewScheduler(d.ImportRepo, d.Config.Import.StaleAfter, d.Logger).
		WithMetrics(d.ImportMetrics).
		WithPruner(d.RateLimiter)

	d.Logger.Info("services initialized",
		slog.String("storage", d.Config.Storage.Type),
		slog.String("sign_convention", string(convention)))
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)
	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.TracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.TracerProvider.Shutdown(ctx); err != nil {
			d.Logger.Warn("failed to flush spans", slog.Any("error", err))
		}
		cancel()
	}
	if closer, ok := d.FileStorage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			d.Logger.Warn("failed to close file storage", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	if d.SQLiteDB != nil {
		d.SQLiteDB.Close()
	}
	d.Logger.Info("cleanup completed")
}
