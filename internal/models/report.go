package models

import "time"

// Report types.
const (
	ReportDaily   = "daily"
	ReportWeekly  = "weekly"
	ReportMonthly = "monthly"
)

// Report is a write-once cache entry for a computed period analysis,
// keyed by (user, type, period). Once created it is returned verbatim
// regardless of later meal data changes.
type Report struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_report_key;not null" json:"user_id"`
	ReportType string    `gorm:"size:20;uniqueIndex:idx_report_key;not null" json:"report_type"`
	StartDate  time.Time `gorm:"uniqueIndex:idx_report_key;not null" json:"start_date"`
	EndDate    time.Time `gorm:"uniqueIndex:idx_report_key;not null" json:"end_date"`

	MealCount    int     `json:"meal_count"`
	ScoreAverage float64 `json:"score_average"`
	Analysis     string  `gorm:"type:text" json:"analysis"`
	ModelUsed    string  `gorm:"size:100" json:"model_used"`

	CreatedAt time.Time `json:"created_at"`
}

func (Report) TableName() string { return "reports" }
