// Package app wires configuration, storage and services into a runnable
// application shared by the HTTP server and the operator CLI.
package app

import (
	"context"
	"fitplanhub/backend/internal/config"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository"
	"fitplanhub/backend/internal/repository/memory"
	mongorepo "fitplanhub/backend/internal/repository/mongo"
	"fitplanhub/backend/internal/service"
	"fitplanhub/backend/internal/storage"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the wired dependencies of one process.
type App struct {
	Config   config.Config
	Log      *logger.Logger
	Repos    repository.Repositories
	DB       *mongo.Database // nil with the memory driver
	Registry *prometheus.Registry
	Metrics  metrics.Recorder

	Auth          service.AuthService
	Plans         service.PlanService
	Subscriptions service.SubscriptionService
	Reviews       service.ReviewService
	Social        service.SocialService
	Feed          service.FeedService
	Reconcile     service.ReconcileService

	client *mongo.Client
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg config.Config) *logger.Logger {
	return logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}).
		With("service", "fitplanhub")
}

// New connects the configured store and builds every service.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	// --- Repositories ---
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory store; data is lost on restart")
		a.Repos = memory.NewStore().Repositories()
	case config.DriverMongo:
		client, err := mongorepo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		a.client = client
		a.DB = client.Database(cfg.Database.Name)
		a.Repos = mongorepo.NewRepositories(a.DB)
		log.Infof("Connected to MongoDB database %q", cfg.Database.Name)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	// --- Metrics ---
	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.Metrics = metrics.NewCollector(a.Registry)
	} else {
		a.Metrics = metrics.Nop{}
	}

	// --- File Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initialize S3 storage: %w", err)
		}
		fileStorage = s3Storage
	} else {
		log.Warn("S3 is not configured; plan cover uploads are disabled")
	}

	// --- Services ---
	v := validator.New()
	counters := service.NewCounterService(a.Repos, log, a.Metrics)
	a.Auth = service.NewAuthService(a.Repos.Users, cfg.JWT.Secret, cfg.JWT.Expiration, v, log)
	a.Plans = service.NewPlanService(a.Repos, counters, fileStorage, cfg.S3.PresignExpiry, v, log)
	a.Subscriptions = service.NewSubscriptionService(a.Repos, counters, v, log, a.Metrics)
	a.Reviews = service.NewReviewService(a.Repos, counters, v, log, a.Metrics)
	a.Social = service.NewSocialService(a.Repos, counters, a.Metrics)
	a.Feed = service.NewFeedService(a.Repos, v)
	a.Reconcile = service.NewReconcileService(a.Repos, log)

	return a, nil
}

// EnsureIndexes creates the Mongo indexes. A no-op with the memory driver.
func (a *App) EnsureIndexes(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return mongorepo.EnsureIndexes(ctx, a.DB)
}

// Close releases the database connection.
func (a *App) Close() {
	if a.client == nil {
		return
	}
	if err := mongorepo.DisconnectDB(a.client); err != nil {
		a.Log.ErrorWithErr(err, "Failed to disconnect MongoDB")
	}
	a.client = nil
}
