package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dietmate/backend/internal/config"
	"github.com/dietmate/backend/internal/models"
	"github.com/dietmate/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReportScheduler runs the nightly report precompute enqueue and the
// retention cleanup sweep.
type ReportScheduler struct {
	db      *gorm.DB
	queue   TaskQueue
	reports *ReportService
	cfg     *config.ReportConfig
	cron    *cron.Cron
}

func NewReportScheduler(db *gorm.DB, queue TaskQueue, reports *ReportService, cfg *config.ReportConfig) *ReportScheduler {
	return &ReportScheduler{db: db, queue: queue, reports: reports, cfg: cfg}
}

func (s *ReportScheduler) Start() {
	s.cron = cron.New()

	if s.cfg.PrecomputeTime != "" {
		hour, minute := parseClock(s.cfg.PrecomputeTime, 23, 30)
		expr := fmt.Sprintf("%d %d * * *", minute, hour)
		if _, err := s.cron.AddFunc(expr, func() {
			s.EnqueueDailyReports()
		}); err != nil {
			logger.Warnf("[Scheduler] failed to add precompute job: %v", err)
		} else {
			logger.Infof("[Scheduler] daily report precompute scheduled at %s", s.cfg.PrecomputeTime)
		}
	}

	// Retention sweep runs early morning, off the precompute slot.
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		s.Cleanup()
	}); err != nil {
		logger.Warnf("[Scheduler] failed to add cleanup job: %v", err)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] started")
}

func (s *ReportScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// EnqueueDailyReports queues a daily report task for every user who
// logged a meal today, warming the cache before morning traffic.
func (s *ReportScheduler) EnqueueDailyReports() {
	today := time.Now()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	end := start.Add(24*time.Hour - time.Second)

	var userIDs []uint
	if err := s.db.Model(&models.MealRecord{}).
		Where("eaten_at BETWEEN ? AND ?", start, end).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		logger.Errorf("[Scheduler] failed to list active users: %v", err)
		return
	}

	date := start.Format("2006-01-02")
	for _, userID := range userIDs {
		task := &ReportTask{
			UserID:     userID,
			ReportType: models.ReportDaily,
			StartDate:  date,
			EndDate:    date,
		}
		if err := s.queue.Enqueue(task); err != nil {
			logger.Warnf("[Scheduler] failed to enqueue report for user %d: %v", userID, err)
		}
	}

	logger.Infof("[Scheduler] enqueued %d daily report tasks for %s", len(userIDs), date)
}

// Cleanup applies the retention policy to cached reports, expired
// refresh tokens and old activity logs.
func (s *ReportScheduler) Cleanup() {
	if n, err := s.reports.CleanupReports(s.cfg.RetentionDays); err != nil {
		logger.Errorf("[Scheduler] report cleanup failed: %v", err)
	} else if n > 0 {
		logger.Infof("[Scheduler] removed %d expired reports", n)
	}

	if n, err := CleanupRefreshTokens(s.db); err != nil {
		logger.Errorf("[Scheduler] refresh token cleanup failed: %v", err)
	} else if n > 0 {
		logger.Infof("[Scheduler] removed %d expired refresh tokens", n)
	}

	if n, err := CleanupActivityLogs(s.db, 30); err != nil {
		logger.Errorf("[Scheduler] activity log cleanup failed: %v", err)
	} else if n > 0 {
		logger.Infof("[Scheduler] removed %d old activity log entries", n)
	}
}

// ProcessReportTask is the queue processor: it parses the task period
// and routes it through the cached compute path.
func (s *ReportScheduler) ProcessReportTask(ctx context.Context, task *ReportTask) error {
	start, err := time.ParseInLocation("2006-01-02", task.StartDate, time.Local)
	if err != nil {
		return fmt.Errorf("invalid task start date %q: %w", task.StartDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", task.EndDate, time.Local)
	if err != nil {
		return fmt.Errorf("invalid task end date %q: %w", task.EndDate, err)
	}

	_, err = s.reports.GetOrCompute(ctx, task.UserID, task.ReportType, start, end)
	return err
}

// parseClock parses "HH:MM", falling back to the given defaults.
func parseClock(v string, defHour, defMinute int) (int, int) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return defHour, defMinute
	}
	var hour, minute int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil || hour < 0 || hour > 23 {
		return defHour, defMinute
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minute); err != nil || minute < 0 || minute > 59 {
		return defHour, defMinute
	}
	return hour, minute
}
