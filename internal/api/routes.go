package api

import (
	"fitplanhub/backend/internal/domain" // Needed for RoleMiddleware
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth          service.AuthService
	Plans         service.PlanService
	Subscriptions service.SubscriptionService
	Reviews       service.ReviewService
	Social        service.SocialService
	Feed          service.FeedService
}

// RouteOptions carries the cross-cutting pieces of the router.
type RouteOptions struct {
	Logger         *logger.Logger
	Metrics        metrics.Recorder // Optional
	MetricsHandler http.Handler     // Optional, served at MetricsPath
	MetricsPath    string
	RateLimiter    *RateLimiter // Optional, applied to /api/v1
	Debug          bool         // Expose internal error text in error responses
}

func SetupRoutes(router *gin.Engine, services Services, opts RouteOptions) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	router.Use(Recovery(log), RequestLogger(log))
	if opts.Metrics != nil {
		router.Use(Metrics(opts.Metrics))
	}

	authHandler := NewAuthHandler(services.Auth, opts.Debug)
	planHandler := NewPlanHandler(services.Plans, services.Feed, services.Reviews, opts.Debug)
	subscriptionHandler := NewSubscriptionHandler(services.Subscriptions, services.Auth, opts.Debug)
	userHandler := NewUserHandler(services.Social, services.Auth, opts.Debug)
	feedHandler := NewFeedHandler(services.Feed, opts.Debug)

	authMiddleware := AuthMiddleware(services.Auth)
	optionalAuth := OptionalAuthMiddleware(services.Auth)
	trainerOnly := RoleMiddleware(domain.RoleTrainer)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		router.GET(opts.MetricsPath, gin.WrapH(opts.MetricsHandler))
	}

	apiV1 := router.Group("/api/v1")
	if opts.RateLimiter != nil {
		apiV1.Use(opts.RateLimiter.Middleware())
	}

	// --- Auth Routes ---
	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/profile", authMiddleware, authHandler.GetProfile)
		authGroup.PUT("/profile", authMiddleware, authHandler.UpdateProfile)
		authGroup.PUT("/change-password", authMiddleware, authHandler.ChangePassword)
	}

	// --- Plan Routes ---
	planGroup := apiV1.Group("/plans")
	{
		planGroup.GET("", optionalAuth, planHandler.ListPlans)
		planGroup.GET("/:id", optionalAuth, planHandler.GetPlan)
		planGroup.GET("/trainer/:trainerId", planHandler.ListTrainerPlans)
		planGroup.GET("/:id/reviews", planHandler.ListReviews)

		planGroup.POST("", authMiddleware, trainerOnly, planHandler.CreatePlan)
		planGroup.PUT("/:id", authMiddleware, trainerOnly, planHandler.UpdatePlan)
		planGroup.DELETE("/:id", authMiddleware, trainerOnly, planHandler.DeletePlan)
		planGroup.POST("/:id/cover", authMiddleware, trainerOnly, planHandler.RequestCoverUpload)
		planGroup.PUT("/:id/cover", authMiddleware, trainerOnly, planHandler.ConfirmCoverUpload)
		planGroup.POST("/:id/reviews", authMiddleware, planHandler.SubmitReview)
	}

	// --- Subscription Routes ---
	subscriptionGroup := apiV1.Group("/subscriptions")
	subscriptionGroup.Use(authMiddleware)
	{
		subscriptionGroup.POST("/subscribe/:planId", subscriptionHandler.Subscribe)
		subscriptionGroup.GET("/my-subscriptions", subscriptionHandler.ListMine)
		subscriptionGroup.GET("/trainer/subscriptions", trainerOnly, subscriptionHandler.ListTrainerSubscribers)
		subscriptionGroup.GET("/:subscriptionId", subscriptionHandler.Get)
		subscriptionGroup.PUT("/:subscriptionId/progress", subscriptionHandler.UpdateProgress)
		subscriptionGroup.DELETE("/unsubscribe/:subscriptionId", subscriptionHandler.Unsubscribe)
	}

	apiV1.GET("/payments/my-payments", authMiddleware, subscriptionHandler.ListMyPayments)

	// --- User Routes ---
	userGroup := apiV1.Group("/users")
	{
		userGroup.GET("/trainers", optionalAuth, userHandler.ListTrainers)
		userGroup.GET("/:id", optionalAuth, userHandler.GetUser)
		userGroup.PUT("/:id", authMiddleware, userHandler.UpdateUser)
		userGroup.POST("/follow/:trainerId", authMiddleware, userHandler.Follow)
		userGroup.DELETE("/unfollow/:trainerId", authMiddleware, userHandler.Unfollow)
		userGroup.GET("/profile/following", authMiddleware, userHandler.ListFollowing)
		userGroup.GET("/profile/followers", authMiddleware, userHandler.ListFollowers)
	}

	// --- Feed Routes ---
	feedGroup := apiV1.Group("/feed")
	feedGroup.Use(authMiddleware)
	{
		feedGroup.GET("", feedHandler.GetFeed)
		feedGroup.GET("/dashboard-stats", feedHandler.DashboardStats)
		feedGroup.GET("/recommended", feedHandler.Recommended)
	}

	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Route not found")
	})
}
