package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/analysis"
	httptransport "github.com/spec-kit/incident-service/internal/api/http"
	"github.com/spec-kit/incident-service/internal/api/http/handlers"
	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/mq"
	"github.com/spec-kit/incident-service/internal/observability"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/repository"
	"github.com/spec-kit/incident-service/internal/repository/sqlite"
	"github.com/spec-kit/incident-service/internal/service"
	"github.com/spec-kit/incident-service/internal/storage"
	"github.com/spec-kit/incident-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// stores groups the repositories of the selected driver.
type stores struct {
	name    string
	users   repository.UserRepository
	reports repository.ReportRepository
	history repository.StatusHistoryRepository
	pinger  handlers.Pinger
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		db, err := persistence.OpenSQLite(cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Store.RunMigrations {
			if err := persistence.MigrateSQLite(db.DB, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &stores{
			name:    "sqlite",
			users:   sqlite.NewUserRepository(db.DB),
			reports: sqlite.NewReportRepository(db.DB),
			history: sqlite.NewStatusHistoryRepository(db.DB),
			pinger:  db,
			close:   db.Close,
		}, nil
	default:
		if cfg.Store.RunMigrations {
			if err := persistence.MigratePostgres(cfg.Postgres.DSN, logger); err != nil {
				return nil, err
			}
		}
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &stores{
			name:    "postgres",
			users:   repository.NewUserRepository(pg.Pool),
			reports: repository.NewReportRepository(pg.Pool),
			history: repository.NewStatusHistoryRepository(pg.Pool),
			pinger:  pg,
			close:   pg.Close,
		}, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	optional := map[string]handlers.Pinger{}
	var submitLimiter *httptransport.WindowLimiter
	if cfg.Redis.Addr != "" {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		optional["redis"] = redis
		submitLimiter = httptransport.NewWindowLimiter(redis.Client,
			cfg.RateLimit.SubmitRequests, cfg.RateLimit.SubmitWindow(), cfg.RateLimit.KeyPrefix, logger)
	}

	objectStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}
	if objectStore != nil {
		if closer, ok := objectStore.(io.Closer); ok {
			defer closer.Close() //nolint:errcheck
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket %s: %w", objectStore.Bucket(), err)
		}
		logger.Info("object storage ready", zap.String("driver", cfg.Storage.Driver), zap.String("bucket", objectStore.Bucket()))
	}
	images := storage.NewImageStore(objectStore, cfg.Storage.MaxImageBytes)

	broker, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		return fmt.Errorf("init message broker: %w", err)
	}
	var publisher service.EventPublisher
	if broker != nil {
		defer broker.Close() //nolint:errcheck
		publisher = broker
		logger.Info("relaying events", zap.String("driver", cfg.MQ.Driver), zap.String("topic", cfg.MQ.Topic))
	}

	metrics := observability.NewMetrics()
	authService := service.NewAuthService(cfg.Auth, cfg.App.Name, store.users, logger)
	reportService := service.NewReportService(service.ReportDependencies{
		Reports:       store.reports,
		History:       store.history,
		Images:        images,
		Metrics:       metrics,
		Logger:        logger,
		PublicListing: cfg.Reports.PublicListing,
	})

	analysisService := service.NewAnalysisService(analysis.NewClient(cfg.Analysis), images, reportService, logger)
	stopWorkers := worker.Start(ctx, reportService.Dispatcher(),
		service.NewNotificationService(reportService.Dispatcher(), publisher, cfg.MQ.Topic, logger),
		worker.NewAnalysisWorker(analysisService, cfg.Analysis.Workers, cfg.Analysis.QueueSize, cfg.Analysis.Timeout(), logger))
	defer stopWorkers()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit(cfg.Storage.MaxImageBytes),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics,
			map[string]handlers.Pinger{store.name: store.pinger}, optional),
		Auth:           handlers.NewAuthHandler(authService),
		Reports:        handlers.NewReportsHandler(reportService, analysisService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.users),
		SubmitLimiter:  submitLimiter,
		AuthLimiter:    httptransport.NewIPLimiter(cfg.RateLimit.AuthRequests, time.Minute, logger),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("store", store.name))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}

// bodyLimit leaves room for a base64 encoded image plus the other form fields.
func bodyLimit(maxImageBytes int64) int {
	if maxImageBytes <= 0 {
		maxImageBytes = 5 << 20
	}
	return int(maxImageBytes/3*4) + 64<<10
}
