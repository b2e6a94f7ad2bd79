package models

import "time"

// Challenge goal types. GoalTypeScore is declared for forward
// compatibility but has no evaluation semantics yet; creation with it
// is rejected.
const (
	GoalTypeCount = "count"
	GoalTypeScore = "score"
)

// Participation states. The in_progress -> completed transition is
// one-way.
const (
	ParticipationInProgress = "in_progress"
	ParticipationCompleted  = "completed"
)

type Challenge struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	GroupID     uint   `gorm:"index;not null" json:"group_id"`
	Group       *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	CreatorID   uint   `gorm:"not null" json:"creator_id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	GoalType    string  `gorm:"size:20;not null" json:"goal_type"`
	TargetCount int     `gorm:"not null" json:"target_count"`
	MinScore    float64 `json:"min_score"` // 0 means no qualifying threshold

	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (Challenge) TableName() string { return "challenges" }

// ChallengeParticipant tracks a user's progress against a challenge.
// CurrentCount is monotonically non-decreasing and capped at the
// challenge target once the participation completes.
type ChallengeParticipant struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ChallengeID uint       `gorm:"uniqueIndex:idx_challenge_user;not null" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	UserID      uint       `gorm:"uniqueIndex:idx_challenge_user;not null" json:"user_id"`

	CurrentCount int        `gorm:"not null;default:0" json:"current_count"`
	Status       string     `gorm:"size:20;default:in_progress" json:"status"`
	CompletedAt  *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChallengeParticipant) TableName() string { return "challenge_participants" }
