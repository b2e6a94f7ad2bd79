package main

import (
	"github.com/gin-gonic/gin"

	"github.com/dietmate/backend/internal/handlers"
	"github.com/dietmate/backend/internal/middleware"
	"github.com/dietmate/backend/internal/models"
	"github.com/dietmate/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for auth routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "dietmate"})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Groups
			groupHandler := handlers.NewGroupHandler(models.GetDB())
			protected.GET("/groups", groupHandler.List)
			protected.POST("/groups", groupHandler.Create)
			protected.GET("/groups/:id", groupHandler.GetByID)
			protected.POST("/groups/:id/join", groupHandler.Join)
			protected.POST("/groups/:id/leave", groupHandler.Leave)
			protected.POST("/groups/:id/delegate", groupHandler.Delegate)
			protected.GET("/groups/:id/members", groupHandler.Members)
			protected.DELETE("/groups/:id/members/:userId", groupHandler.Kick)
			protected.GET("/groups/:id/ranking", groupHandler.Ranking)
			protected.GET("/groups/:id/comparison", svc.reportHandler.Comparison)

			// Challenges
			challengeHandler := handlers.NewChallengeHandler(models.GetDB())
			protected.POST("/groups/:id/challenges", challengeHandler.Create)
			protected.GET("/groups/:id/challenges", challengeHandler.ListByGroup)
			protected.GET("/challenges/:id", challengeHandler.GetByID)
			protected.POST("/challenges/:id/join", challengeHandler.Join)
			protected.GET("/challenges/:id/participants", challengeHandler.Participants)
			protected.GET("/challenges/:id/progress", challengeHandler.Progress)

			// Meals
			protected.POST("/meals", svc.mealHandler.Record)
			protected.GET("/meals", svc.mealHandler.List)

			// Reports
			protected.GET("/reports/daily", svc.reportHandler.Daily)
			protected.GET("/reports/weekly", svc.reportHandler.Weekly)
			protected.GET("/reports/monthly", svc.reportHandler.Monthly)

			// Goals
			goalHandler := handlers.NewGoalHandler(models.GetDB())
			protected.GET("/goals", goalHandler.Get)
			protected.PUT("/goals", goalHandler.Upsert)
		}
	}
}
