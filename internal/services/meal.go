package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dietmate/backend/internal/models"
	"github.com/dietmate/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealService records analyzed meals and advances challenge progress.
// Meal persistence and the progress update form one transaction; the
// per-participant lock keeps concurrent submissions from losing an
// increment.
type MealService struct {
	db       *gorm.DB
	analyzer NutritionAnalyzer
	locks    *keyedMutex
}

func NewMealService(db *gorm.DB, analyzer NutritionAnalyzer) *MealService {
	if analyzer == nil {
		analyzer = NewHeuristicAnalyzer(nil)
	}
	return &MealService{db: db, analyzer: analyzer, locks: newKeyedMutex()}
}

func participantLockKey(challengeID, userID uint) string {
	return fmt.Sprintf("participant:%d:%d", challengeID, userID)
}

type RecordMealRequest struct {
	MealInput
	ChallengeID *uint      `json:"challenge_id,omitempty"`
	EatenAt     *time.Time `json:"eaten_at,omitempty"`
}

type RecordMealResult struct {
	Meal          *models.MealRecord           `json:"meal"`
	Participation *models.ChallengeParticipant `json:"participation,omitempty"`
	// ProgressCounted is false when the meal was recorded but did not
	// qualify for challenge progress (below the challenge minimum
	// score, or the participation already completed).
	ProgressCounted bool `json:"progress_counted"`
}

// Record analyzes and persists a meal, then applies challenge progress
// when a challenge is named. A meal scoring below the challenge's
// minimum is still recorded; its progress is silently unaffected.
func (s *MealService) Record(ctx context.Context, userID uint, req *RecordMealRequest) (*RecordMealResult, error) {
	analysis, err := s.analyzer.Analyze(ctx, &req.MealInput)
	if err != nil {
		analysis = FallbackAnalysis(&req.MealInput)
	}

	eatenAt := time.Now()
	if req.EatenAt != nil && !req.EatenAt.IsZero() {
		eatenAt = *req.EatenAt
	}

	var challenge *models.Challenge
	if req.ChallengeID != nil {
		var ch models.Challenge
		if err := s.db.First(&ch, *req.ChallengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrChallengeNotFound
			}
			return nil, err
		}
		challenge = &ch

		unlock := s.locks.Lock(participantLockKey(ch.ID, userID))
		defer unlock()
	}

	result := &RecordMealResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		meal := &models.MealRecord{
			UID:         uuid.NewString(),
			UserID:      userID,
			ChallengeID: req.ChallengeID,
			MenuName:    analysis.MenuName,
			Calories:    analysis.Calories,
			Protein:     analysis.Protein,
			Carbs:       analysis.Carbs,
			Fat:         analysis.Fat,
			Score:       analysis.Score,
			EatenAt:     eatenAt,
		}
		if err := tx.Create(meal).Error; err != nil {
			return err
		}
		result.Meal = meal

		if challenge == nil {
			return nil
		}

		var participant models.ChallengeParticipant
		if err := tx.Where("challenge_id = ? AND user_id = ?", challenge.ID, userID).
			First(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipationNotFound
			}
			return err
		}

		if challenge.MinScore > 0 && analysis.Score < challenge.MinScore {
			result.Participation = &participant
			return nil
		}

		counted, err := s.advanceProgress(tx, challenge, &participant)
		if err != nil {
			return err
		}
		result.Participation = &participant
		result.ProgressCounted = counted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.ProgressCounted && result.Participation.Status == models.ParticipationCompleted {
		logger.Infof("[Meal] user %d completed challenge %d", userID, *req.ChallengeID)
		LogActivity(userID, "challenge", "complete", fmt.Sprintf("challenge %d", *req.ChallengeID))
	}
	return result, nil
}

// advanceProgress applies a guarded increment: the status condition in
// the UPDATE means a completed participation is never advanced, which
// both prevents lost updates and caps the count at the target.
func (s *MealService) advanceProgress(tx *gorm.DB, challenge *models.Challenge, participant *models.ChallengeParticipant) (bool, error) {
	update := tx.Model(&models.ChallengeParticipant{}).
		Where("challenge_id = ? AND user_id = ? AND status = ?",
			challenge.ID, participant.UserID, models.ParticipationInProgress).
		Update("current_count", gorm.Expr("current_count + 1"))
	if update.Error != nil {
		return false, update.Error
	}
	if update.RowsAffected == 0 {
		return false, nil
	}

	if err := tx.Where("challenge_id = ? AND user_id = ?", challenge.ID, participant.UserID).
		First(participant).Error; err != nil {
		return false, err
	}

	if participant.CurrentCount >= challenge.TargetCount &&
		participant.Status == models.ParticipationInProgress {
		now := time.Now()
		if err := tx.Model(participant).
			Updates(map[string]interface{}{
				"status":       models.ParticipationCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return false, err
		}
		participant.Status = models.ParticipationCompleted
		participant.CompletedAt = &now
	}

	return true, nil
}

// ListForUser returns a user's meals within [from, to], newest first.
func (s *MealService) ListForUser(userID uint, from, to time.Time) ([]models.MealRecord, error) {
	var meals []models.MealRecord
	err := s.db.Where("user_id = ?", userID).
		Where("eaten_at BETWEEN ? AND ?", from, to).
		Order("eaten_at DESC").
		Find(&meals).Error
	return meals, err
}
