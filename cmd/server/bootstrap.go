package main

import (
	"github.com/dietmate/backend/internal/config"
	"github.com/dietmate/backend/internal/handlers"
	"github.com/dietmate/backend/internal/models"
	"github.com/dietmate/backend/internal/services"
	"github.com/dietmate/backend/internal/utils"
	"github.com/dietmate/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	reportService *services.ReportService
	scheduler     *services.ReportScheduler
	taskQueue     services.TaskQueue
	worker        *services.Worker
	authHandler   *handlers.AuthHandler
	mealHandler   *handlers.MealHandler
	reportHandler *handlers.ReportHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize activity logger
	services.InitActivityLogger(models.GetDB())

	// Report generation shares one service instance between the HTTP
	// layer and the precompute worker so cache fills are single-flight
	// across both.
	llmClient := services.NewLLMClient(&cfg.LLM)
	reportService := services.NewReportService(models.GetDB(), llmClient)
	comparisonService := services.NewComparisonService(models.GetDB())

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	scheduler := services.NewReportScheduler(models.GetDB(), taskQueue, reportService, &cfg.Report)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(scheduler.ProcessReportTask)
	}
	scheduler.Start()

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(scheduler.ProcessReportTask)
			worker.Start()
		}
	}

	analyzer := services.NewNutritionAnalyzer(&cfg.Nutrition)
	mealService := services.NewMealService(models.GetDB(), analyzer)

	return &appServices{
		reportService: reportService,
		scheduler:     scheduler,
		taskQueue:     taskQueue,
		worker:        worker,
		authHandler:   handlers.NewAuthHandler(models.GetDB(), &cfg.JWT),
		mealHandler:   handlers.NewMealHandler(mealService),
		reportHandler: handlers.NewReportHandler(reportService, comparisonService),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("Scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
