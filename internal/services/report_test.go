package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dietmate/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeGenerator counts calls and returns canned text.
type fakeGenerator struct {
	calls int64
	text  string
	err   error
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.text, f.err
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func (f *fakeGenerator) callCount() int64 { return atomic.LoadInt64(&f.calls) }

func seedMeal(t *testing.T, db *gorm.DB, userID uint, score float64, eatenAt time.Time) {
	t.Helper()

	meal := &models.MealRecord{
		UID:      uuid.NewString(),
		UserID:   userID,
		MenuName: "Seeded meal",
		Calories: 500,
		Protein:  30,
		Carbs:    50,
		Fat:      15,
		Score:    score,
		EatenAt:  eatenAt,
	}
	if err := db.Create(meal).Error; err != nil {
		t.Fatalf("failed to seed meal: %v", err)
	}
}

func TestReportService_EmptyDailyNotPersisted(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{text: "analysis"}
	svc := NewReportService(db, gen)
	user := createTestUser(t, db, "alice")

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	result, err := svc.Daily(context.Background(), user.ID, day)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}

	if result.Analysis != NoMealsMessage {
		t.Errorf("Analysis = %q, expected the no-meals message", result.Analysis)
	}
	if result.Persisted {
		t.Error("empty daily report must not persist")
	}
	if gen.callCount() != 0 {
		t.Errorf("generator calls = %d, expected 0 for empty day", gen.callCount())
	}

	var count int64
	db.Model(&models.Report{}).Count(&count)
	if count != 0 {
		t.Errorf("stored reports = %d, expected 0", count)
	}

	// A meal logged later makes the next request compute for real.
	seedMeal(t, db, user.ID, 80, day.Add(12*time.Hour))
	result, err = svc.Daily(context.Background(), user.ID, day)
	if err != nil {
		t.Fatalf("second Daily failed: %v", err)
	}
	if result.MealCount != 1 {
		t.Errorf("MealCount = %d, expected 1", result.MealCount)
	}
	if !result.Persisted {
		t.Error("non-empty daily report must persist")
	}
	if gen.callCount() != 1 {
		t.Errorf("generator calls = %d, expected 1", gen.callCount())
	}
}

func TestReportService_WeeklyCachedVerbatim(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{text: "weekly analysis"}
	svc := NewReportService(db, gen)
	user := createTestUser(t, db, "alice")

	end := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	seedMeal(t, db, user.ID, 75, end.Add(-24*time.Hour))

	first, err := svc.Weekly(context.Background(), user.ID, end)
	if err != nil {
		t.Fatalf("first Weekly failed: %v", err)
	}
	if first.Cached {
		t.Error("first compute must not be cached")
	}
	if first.MealCount != 1 {
		t.Errorf("MealCount = %d, expected 1", first.MealCount)
	}

	// More data arrives, but the cached report is returned unchanged.
	seedMeal(t, db, user.ID, 95, end.Add(-48*time.Hour))

	second, err := svc.Weekly(context.Background(), user.ID, end)
	if err != nil {
		t.Fatalf("second Weekly failed: %v", err)
	}
	if !second.Cached {
		t.Error("second request must hit the cache")
	}
	if second.MealCount != first.MealCount {
		t.Errorf("cached MealCount = %d, expected %d", second.MealCount, first.MealCount)
	}
	if second.Analysis != first.Analysis {
		t.Error("cached analysis must match the original")
	}
	if gen.callCount() != 1 {
		t.Errorf("generator calls = %d, expected exactly 1", gen.callCount())
	}
}

func TestReportService_EmptyWeeklyStillPersists(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{text: "quiet week"}
	svc := NewReportService(db, gen)
	user := createTestUser(t, db, "alice")

	result, err := svc.Weekly(context.Background(), user.ID, time.Now())
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}
	if result.MealCount != 0 {
		t.Errorf("MealCount = %d, expected 0", result.MealCount)
	}
	if !result.Persisted {
		t.Error("empty weekly report must still persist")
	}
}

func TestReportService_GeneratorFailureFallsBack(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{err: errors.New("provider down")}
	svc := NewReportService(db, gen)
	user := createTestUser(t, db, "alice")

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	seedMeal(t, db, user.ID, 60, day.Add(8*time.Hour))

	result, err := svc.Daily(context.Background(), user.ID, day)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	if result.Analysis != FallbackAnalysisText {
		t.Errorf("Analysis = %q, expected the fallback text", result.Analysis)
	}
	// Stats are still real and the report still caches.
	if result.MealCount != 1 {
		t.Errorf("MealCount = %d, expected 1", result.MealCount)
	}
	if !result.Persisted {
		t.Error("fallback report must still persist")
	}
}

func TestReportService_InvalidPeriods(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db, &fakeGenerator{text: "x"})
	user := createTestUser(t, db, "alice")
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

	if _, err := svc.GetOrCompute(ctx, user.ID, models.ReportDaily, day, day.AddDate(0, 0, 1)); !errors.Is(err, ErrInvalidReportPeriod) {
		t.Errorf("multi-day daily: expected ErrInvalidReportPeriod, got %v", err)
	}
	if _, err := svc.GetOrCompute(ctx, user.ID, models.ReportWeekly, day, day.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidReportPeriod) {
		t.Errorf("inverted weekly: expected ErrInvalidReportPeriod, got %v", err)
	}
	if _, err := svc.GetOrCompute(ctx, user.ID, "yearly", day, day); !errors.Is(err, ErrInvalidReportPeriod) {
		t.Errorf("unknown type: expected ErrInvalidReportPeriod, got %v", err)
	}
}

func TestReportService_ConcurrentRequestsSingleFlight(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{text: "single flight"}
	svc := NewReportService(db, gen)
	user := createTestUser(t, db, "alice")

	end := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	seedMeal(t, db, user.ID, 75, end.Add(-24*time.Hour))

	const requests = 5
	var wg sync.WaitGroup
	results := make([]*ReportResult, requests)
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Weekly(context.Background(), user.ID, end)
		}(i)
	}
	wg.Wait()

	for i := 0; i < requests; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if results[i].Analysis != "single flight" {
			t.Errorf("request %d analysis = %q", i, results[i].Analysis)
		}
	}
	if gen.callCount() != 1 {
		t.Errorf("generator calls = %d, expected exactly 1", gen.callCount())
	}

	var count int64
	db.Model(&models.Report{}).Count(&count)
	if count != 1 {
		t.Errorf("stored reports = %d, expected 1", count)
	}
}

func TestReportService_CleanupReports(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db, &fakeGenerator{text: "x"})
	user := createTestUser(t, db, "alice")

	old := models.Report{
		UserID:     user.ID,
		ReportType: models.ReportDaily,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
		EndDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
		Analysis:   "stale",
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("failed to seed report: %v", err)
	}
	// Backdate past the retention window.
	db.Model(&old).Update("created_at", time.Now().AddDate(0, 0, -120))

	removed, err := svc.CleanupReports(90)
	if err != nil {
		t.Fatalf("CleanupReports failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, expected 1", removed)
	}
}
