package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dietmate/backend/internal/models"
	"github.com/dietmate/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	// NoMealsMessage is returned for an empty daily period. Nothing is
	// persisted in that case, so the next request recomputes.
	NoMealsMessage = "No meals were recorded on this day, so there is nothing to analyze yet. Log your first meal to get a daily report."

	// FallbackAnalysisText replaces the generated analysis when the
	// text-generation collaborator is unreachable or malformed.
	FallbackAnalysisText = "Your stats for this period are ready, but the detailed analysis could not be generated right now. Please check back later."
)

// ReportService memoizes period analyses keyed by
// (user, type, start, end). A per-key lock makes the compute-then-store
// path single-flight: a cache-miss stampede produces one LLM call and
// one row.
type ReportService struct {
	db   *gorm.DB
	llm  TextGenerator
	keys *keyedMutex
}

func NewReportService(db *gorm.DB, llm TextGenerator) *ReportService {
	return &ReportService{db: db, llm: llm, keys: newKeyedMutex()}
}

// ReportResult is a computed or cached report. Persisted is false only
// for the empty-daily case, which intentionally never caches.
type ReportResult struct {
	UserID       uint      `json:"user_id"`
	ReportType   string    `json:"report_type"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	MealCount    int       `json:"meal_count"`
	ScoreAverage float64   `json:"score_average"`
	Analysis     string    `json:"analysis"`
	Cached       bool      `json:"cached"`
	Persisted    bool      `json:"persisted"`
}

func reportLockKey(userID uint, reportType string, start, end time.Time) string {
	return fmt.Sprintf("report:%d:%s:%s:%s",
		userID, reportType, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Daily computes or returns the report for a single day.
func (s *ReportService) Daily(ctx context.Context, userID uint, date time.Time) (*ReportResult, error) {
	day := truncateDate(date)
	return s.GetOrCompute(ctx, userID, models.ReportDaily, day, day)
}

// Weekly covers the 7 days ending at endDate.
func (s *ReportService) Weekly(ctx context.Context, userID uint, endDate time.Time) (*ReportResult, error) {
	end := truncateDate(endDate)
	return s.GetOrCompute(ctx, userID, models.ReportWeekly, end.AddDate(0, 0, -6), end)
}

// Monthly covers the 30 days ending at endDate.
func (s *ReportService) Monthly(ctx context.Context, userID uint, endDate time.Time) (*ReportResult, error) {
	end := truncateDate(endDate)
	return s.GetOrCompute(ctx, userID, models.ReportMonthly, end.AddDate(0, 0, -29), end)
}

// GetOrCompute returns the cached report for the key, or computes,
// persists and returns it. A cached row is returned verbatim even if
// the underlying meal data changed since it was written.
func (s *ReportService) GetOrCompute(ctx context.Context, userID uint, reportType string, startDate, endDate time.Time) (*ReportResult, error) {
	startDate = truncateDate(startDate)
	endDate = truncateDate(endDate)

	switch reportType {
	case models.ReportDaily:
		if !startDate.Equal(endDate) {
			return nil, ErrInvalidReportPeriod
		}
	case models.ReportWeekly, models.ReportMonthly:
		if endDate.Before(startDate) {
			return nil, ErrInvalidReportPeriod
		}
	default:
		return nil, ErrInvalidReportPeriod
	}

	unlock := s.keys.Lock(reportLockKey(userID, reportType, startDate, endDate))
	defer unlock()

	if cached, err := s.lookup(userID, reportType, startDate, endDate); err != nil {
		return nil, err
	} else if cached != nil {
		return cached, nil
	}

	return s.compute(ctx, userID, reportType, startDate, endDate)
}

func (s *ReportService) lookup(userID uint, reportType string, startDate, endDate time.Time) (*ReportResult, error) {
	var report models.Report
	err := s.db.Where(
		"user_id = ? AND report_type = ? AND start_date = ? AND end_date = ?",
		userID, reportType, startDate, endDate,
	).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ReportResult{
		UserID:       report.UserID,
		ReportType:   report.ReportType,
		StartDate:    report.StartDate,
		EndDate:      report.EndDate,
		MealCount:    report.MealCount,
		ScoreAverage: report.ScoreAverage,
		Analysis:     report.Analysis,
		Cached:       true,
		Persisted:    true,
	}, nil
}

func (s *ReportService) compute(ctx context.Context, userID uint, reportType string, startDate, endDate time.Time) (*ReportResult, error) {
	periodEnd := endDate.Add(24*time.Hour - time.Second)
	stats := collectPeriodStats(s.db, userID, startDate, periodEnd)

	result := &ReportResult{
		UserID:       userID,
		ReportType:   reportType,
		StartDate:    startDate,
		EndDate:      endDate,
		MealCount:    int(stats.MealCount),
		ScoreAverage: round1(stats.AvgScore),
	}

	// Empty daily periods get a fixed message and are never cached;
	// empty weekly/monthly periods still generate and persist. The
	// asymmetry mirrors the product behavior: longer periods always
	// produce a report.
	if stats.MealCount == 0 && reportType == models.ReportDaily {
		result.Analysis = NoMealsMessage
		return result, nil
	}

	analysis, modelUsed := s.generateAnalysis(ctx, reportType, startDate, endDate, &stats)

	report := models.Report{
		UserID:       userID,
		ReportType:   reportType,
		StartDate:    startDate,
		EndDate:      endDate,
		MealCount:    result.MealCount,
		ScoreAverage: result.ScoreAverage,
		Analysis:     analysis,
		ModelUsed:    modelUsed,
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, err
	}

	logger.Infof("[Report] computed %s report for user %d (%s - %s), avg=%.1f",
		reportType, userID, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), result.ScoreAverage)
	LogActivity(userID, "report", "compute", reportType)

	result.Analysis = analysis
	result.Persisted = true
	return result, nil
}

func (s *ReportService) generateAnalysis(ctx context.Context, reportType string, startDate, endDate time.Time, stats *PeriodStats) (string, string) {
	if s.llm == nil {
		return FallbackAnalysisText, ""
	}

	prompt := buildReportPrompt(reportType, startDate, endDate, stats)
	text, err := s.llm.Generate(ctx, prompt)
	if err != nil || len(text) == 0 {
		logger.Warnf("[Report] text generation failed, using fallback: %v", err)
		return FallbackAnalysisText, ""
	}
	return text, s.llm.Model()
}

func buildReportPrompt(reportType string, startDate, endDate time.Time, stats *PeriodStats) string {
	return fmt.Sprintf(`You are a supportive diet coach. Write a short %s report for a user based on the stats below. Keep it under 120 words, friendly and concrete. Do not invent data.

Period: %s to %s
Meals recorded: %d
Average meal score (0-100): %.1f
Average calories per meal: %.0f kcal
Average macros per meal: protein %.0fg, carbs %.0fg, fat %.0fg`,
		reportType,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"),
		stats.MealCount, stats.AvgScore, stats.AvgCalories,
		stats.AvgProtein, stats.AvgCarbs, stats.AvgFat)
}

// CleanupReports deletes cached reports older than retentionDays.
func (s *ReportService) CleanupReports(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.Report{})
	return result.RowsAffected, result.Error
}
