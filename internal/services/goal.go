package services

import (
	"errors"

	"github.com/dietmate/backend/internal/models"
	"gorm.io/gorm"
)

// GoalService maintains per-user intake targets. The comparison
// analyzer reads these; a missing row means all-zero targets.
type GoalService struct {
	db *gorm.DB
}

func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{db: db}
}

type UpsertGoalRequest struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (s *GoalService) Upsert(userID uint, req *UpsertGoalRequest) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.Where("user_id = ?", userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		goal = models.Goal{
			UserID:   userID,
			Calories: req.Calories,
			Protein:  req.Protein,
			Carbs:    req.Carbs,
			Fat:      req.Fat,
		}
		if err := s.db.Create(&goal).Error; err != nil {
			return nil, err
		}
		return &goal, nil
	}
	if err != nil {
		return nil, err
	}

	goal.Calories = req.Calories
	goal.Protein = req.Protein
	goal.Carbs = req.Carbs
	goal.Fat = req.Fat
	if err := s.db.Save(&goal).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

// Get returns the user's goal, zero-filled when none is set.
func (s *GoalService) Get(userID uint) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.Where("user_id = ?", userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Goal{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}
