package models

import "time"

// MealRecord is an append-only log of analyzed meals. Rows are never
// mutated or deleted by the engagement engine.
type MealRecord struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UID    string `gorm:"size:36;uniqueIndex;not null" json:"uid"`
	UserID uint   `gorm:"index;not null" json:"user_id"`

	// Set when the meal was submitted against a challenge; the meal is
	// kept even when it does not qualify for progress.
	ChallengeID *uint `gorm:"index" json:"challenge_id,omitempty"`

	MenuName string  `gorm:"size:200" json:"menu_name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Score    float64 `json:"score"`

	EatenAt   time.Time `gorm:"index;not null" json:"eaten_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (MealRecord) TableName() string { return "meal_records" }
