package models

import "time"

// ActivityLog records notable engagement events (group joins, challenge
// completions, report generation) for the admin surface.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Module    string    `gorm:"size:50;index" json:"module"` // group, challenge, meal, report
	Action    string    `gorm:"size:100" json:"action"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
