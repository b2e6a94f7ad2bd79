package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dietmate/backend/internal/models"
)

func TestBuildGapNarrative_NoGoalOmitsGoalClause(t *testing.T) {
	self := PeriodStats{AvgCalories: 900, AvgScore: 80}
	narrative := BuildGapNarrative(self, nil, &models.Goal{})

	if strings.Contains(narrative, "kcal goal") {
		t.Errorf("zero goal must not produce a calorie clause, got %q", narrative)
	}
	if !strings.Contains(narrative, "holds up well") {
		t.Errorf("expected the praise clause, got %q", narrative)
	}
}

func TestBuildGapNarrative_Overeating(t *testing.T) {
	self := PeriodStats{AvgCalories: 700, AvgScore: 80}
	goal := &models.Goal{Calories: 500}

	narrative := BuildGapNarrative(self, nil, goal)
	if !strings.Contains(narrative, "above your 500 kcal goal") {
		t.Errorf("expected the overeating clause, got %q", narrative)
	}
}

func TestBuildGapNarrative_Undereating(t *testing.T) {
	self := PeriodStats{AvgCalories: 300, AvgScore: 80}
	goal := &models.Goal{Calories: 500}

	narrative := BuildGapNarrative(self, nil, goal)
	if !strings.Contains(narrative, "well below your 500 kcal goal") {
		t.Errorf("expected the undereating clause, got %q", narrative)
	}
}

func TestBuildGapNarrative_NearGoalPraise(t *testing.T) {
	self := PeriodStats{AvgCalories: 520, AvgScore: 80}
	goal := &models.Goal{Calories: 500}

	narrative := BuildGapNarrative(self, nil, goal)
	if !strings.Contains(narrative, "staying near your calorie goal") {
		t.Errorf("expected the on-target clause, got %q", narrative)
	}
}

func TestBuildGapNarrative_ScoreGapWithProteinCallout(t *testing.T) {
	self := PeriodStats{AvgScore: 60, AvgProtein: 10}
	rankers := []RankerStat{
		{AvgScore: 85, AvgProtein: 35},
		{AvgScore: 80, AvgProtein: 30},
	}

	narrative := BuildGapNarrative(self, rankers, nil)
	if !strings.Contains(narrative, "average a meal score of 82.5") {
		t.Errorf("expected the score gap clause, got %q", narrative)
	}
	if !strings.Contains(narrative, "protein") {
		t.Errorf("expected the protein callout, got %q", narrative)
	}
}

func TestBuildGapNarrative_ScoreGapWithoutProteinCallout(t *testing.T) {
	self := PeriodStats{AvgScore: 60, AvgProtein: 30}
	rankers := []RankerStat{{AvgScore: 85, AvgProtein: 35}}

	narrative := BuildGapNarrative(self, rankers, nil)
	if !strings.Contains(narrative, "average a meal score of 85.0") {
		t.Errorf("expected the score gap clause, got %q", narrative)
	}
	if strings.Contains(narrative, "protein") {
		t.Errorf("small protein gap must not be called out, got %q", narrative)
	}
}

func TestBuildGapNarrative_Deterministic(t *testing.T) {
	self := PeriodStats{AvgCalories: 700, AvgScore: 55, AvgProtein: 12}
	rankers := []RankerStat{{AvgScore: 88, AvgProtein: 40}}
	goal := &models.Goal{Calories: 500}

	first := BuildGapNarrative(self, rankers, goal)
	for i := 0; i < 5; i++ {
		if got := BuildGapNarrative(self, rankers, goal); got != first {
			t.Fatalf("narrative changed between identical calls:\n%q\n%q", first, got)
		}
	}
}

func TestComparisonService_AnalyzeGap(t *testing.T) {
	db := newTestDB(t)
	group, owner, bob := setupGroupWithMembers(t, db)
	svc := NewComparisonService(db)

	now := time.Now()
	seedMeal(t, db, owner.ID, 60, now.Add(-24*time.Hour))
	seedMeal(t, db, bob.ID, 90, now.Add(-24*time.Hour))

	report, err := svc.AnalyzeGap(owner.ID, group.ID, models.ReportWeekly)
	if err != nil {
		t.Fatalf("AnalyzeGap failed: %v", err)
	}

	if report.Self.MealCount != 1 {
		t.Errorf("Self.MealCount = %d, expected 1", report.Self.MealCount)
	}
	if len(report.Rankers) != 2 {
		t.Errorf("Rankers = %d, expected 2", len(report.Rankers))
	}
	if report.Rankers[0].UserID != bob.ID {
		t.Errorf("top ranker = %d, expected %d", report.Rankers[0].UserID, bob.ID)
	}
	if report.Goal == nil || report.Goal.Calories != 0 {
		t.Error("expected a zero-filled goal when none is set")
	}
	if report.Narrative == "" {
		t.Error("expected a non-empty narrative")
	}
}

func TestComparisonService_AnalyzeGapValidation(t *testing.T) {
	db := newTestDB(t)
	group, owner, _ := setupGroupWithMembers(t, db)
	outsider := createTestUser(t, db, "eve")
	svc := NewComparisonService(db)

	if _, err := svc.AnalyzeGap(owner.ID, group.ID, "daily"); !errors.Is(err, ErrInvalidReportPeriod) {
		t.Errorf("daily period: expected ErrInvalidReportPeriod, got %v", err)
	}
	if _, err := svc.AnalyzeGap(outsider.ID, group.ID, models.ReportWeekly); !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("outsider: expected ErrNotGroupMember, got %v", err)
	}
	if _, err := svc.AnalyzeGap(owner.ID, 9999, models.ReportMonthly); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("missing group: expected ErrGroupNotFound, got %v", err)
	}
}
