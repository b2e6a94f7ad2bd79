package services

import (
	"math"
	"time"

	"github.com/dietmate/backend/internal/models"
	"gorm.io/gorm"
)

// PeriodStats aggregates a user's meal records over a period.
type PeriodStats struct {
	UserID      uint    `json:"user_id"`
	MealCount   int64   `json:"meal_count"`
	AvgScore    float64 `json:"avg_score"`
	AvgCalories float64 `json:"avg_calories"`
	AvgProtein  float64 `json:"avg_protein"`
	AvgCarbs    float64 `json:"avg_carbs"`
	AvgFat      float64 `json:"avg_fat"`
}

func collectPeriodStats(db *gorm.DB, userID uint, start, end time.Time) PeriodStats {
	stats := PeriodStats{UserID: userID}

	db.Model(&models.MealRecord{}).
		Select(`
			COUNT(*) as meal_count,
			COALESCE(AVG(score), 0) as avg_score,
			COALESCE(AVG(calories), 0) as avg_calories,
			COALESCE(AVG(protein), 0) as avg_protein,
			COALESCE(AVG(carbs), 0) as avg_carbs,
			COALESCE(AVG(fat), 0) as avg_fat
		`).
		Where("user_id = ?", userID).
		Where("eaten_at BETWEEN ? AND ?", start, end).
		Scan(&stats)

	return stats
}

// round1 rounds to one decimal place, matching the stored report average.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
