package main

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/api"
	"fitplanhub/backend/internal/app"
	"fitplanhub/backend/internal/config"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/worker/expiry"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// @title FitPlanHub API
// @version 1.0
// @description Marketplace API for trainer-authored fitness plans, subscriptions and the trainer follow graph.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Deferred cleanup
// runs on every return path.
func run(ctx context.Context, cfg config.Config) error {
	log := app.NewLogger(cfg)
	log.Infof("Starting FitPlanHub server (%s)", cfg.Environment)

	// --- Application ---
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("could not initialize application: %w", err)
	}
	defer application.Close()

	// --- Ensure Indexes ---
	go func() {
		indexCtx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := application.EnsureIndexes(indexCtx); err != nil {
			log.ErrorWithErr(err, "Index creation failed")
			return
		}
		log.Info("Index creation process completed.")
	}()

	// --- Background Jobs ---
	var expiryWorker *expiry.Worker
	if cfg.Jobs.ExpirySchedule != "" {
		expiryWorker, err = expiry.NewWorker(application.Subscriptions, cfg.Jobs.ExpirySchedule, log)
		if err != nil {
			return fmt.Errorf("could not configure expiry worker: %w", err)
		}
		if err := expiryWorker.Start(); err != nil {
			return fmt.Errorf("could not start expiry worker: %w", err)
		}
	}

	// --- Initialize Gin Engine ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	var limiter *api.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = api.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		defer limiter.Stop()
	}

	opts := api.RouteOptions{
		Logger:      log,
		RateLimiter: limiter,
		Debug:       !cfg.IsProduction(),
	}
	if application.Registry != nil {
		opts.Metrics = application.Metrics
		opts.MetricsHandler = metrics.Handler(application.Registry)
		opts.MetricsPath = cfg.Metrics.Path
	}
	api.SetupRoutes(router, api.Services{
		Auth:          application.Auth,
		Plans:         application.Plans,
		Subscriptions: application.Subscriptions,
		Reviews:       application.Reviews,
		Social:        application.Social,
		Feed:          application.Feed,
	}, opts)

	handler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(router)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	var listenErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case listenErr = <-serverErr:
		log.ErrorWithErr(listenErr, "ListenAndServe failed")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.ErrorWithErr(err, "Server forced to shutdown")
	}
	if expiryWorker != nil {
		expiryWorker.Stop(ctxShutdown)
	}

	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Address, listenErr)
	}
	log.Info("Server exiting.")
	return nil
}
