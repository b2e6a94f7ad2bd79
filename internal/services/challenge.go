package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dietmate/backend/internal/models"
	"gorm.io/gorm"
)

// ChallengeService owns challenges and participations. Progress
// counting happens in MealService; this service covers creation, join
// and reads.
type ChallengeService struct {
	db     *gorm.DB
	groups *GroupService
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{db: db, groups: NewGroupService(db)}
}

type CreateChallengeRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	GoalType    string    `json:"goal_type"`
	TargetCount int       `json:"target_count"`
	MinScore    float64   `json:"min_score"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
}

// Create validates and creates a group-scoped challenge. Any member of
// the group may create one. Only count goals are accepted; the score
// goal type is declared in the model but has no evaluation semantics,
// so it is rejected rather than silently stored.
func (s *ChallengeService) Create(groupID, creatorID uint, req *CreateChallengeRequest) (*models.Challenge, error) {
	if _, err := s.groups.GetByID(groupID); err != nil {
		return nil, err
	}
	if _, err := s.groups.MembershipFor(groupID, creatorID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrNotGroupMember
		}
		return nil, err
	}

	switch req.GoalType {
	case models.GoalTypeCount:
		if req.TargetCount <= 0 {
			return nil, ErrInvalidChallengeSpec
		}
	case models.GoalTypeScore:
		return nil, ErrScoreGoalUnsupported
	default:
		return nil, ErrInvalidChallengeSpec
	}

	challenge := &models.Challenge{
		GroupID:     groupID,
		CreatorID:   creatorID,
		Title:       req.Title,
		Description: req.Description,
		GoalType:    req.GoalType,
		TargetCount: req.TargetCount,
		MinScore:    req.MinScore,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	if err := s.db.Create(challenge).Error; err != nil {
		return nil, err
	}

	LogActivity(creatorID, "challenge", "create", challenge.Title)
	return challenge, nil
}

// Join creates a fresh participation for the caller.
func (s *ChallengeService) Join(challengeID, userID uint) (*models.ChallengeParticipant, error) {
	challenge, err := s.GetByID(challengeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.groups.MembershipFor(challenge.GroupID, userID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrNotGroupMember
		}
		return nil, err
	}

	var existing models.ChallengeParticipant
	err = s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	participant := &models.ChallengeParticipant{
		ChallengeID:  challengeID,
		UserID:       userID,
		CurrentCount: 0,
		Status:       models.ParticipationInProgress,
	}
	if err := s.db.Create(participant).Error; err != nil {
		return nil, err
	}

	LogActivity(userID, "challenge", "join", fmt.Sprintf("challenge %d", challengeID))
	return participant, nil
}

// GetByID returns a challenge or ErrChallengeNotFound.
func (s *ChallengeService) GetByID(challengeID uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.db.First(&challenge, challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

// ListByGroup lists a group's challenges, newest first.
func (s *ChallengeService) ListByGroup(groupID uint) ([]models.Challenge, error) {
	if _, err := s.groups.GetByID(groupID); err != nil {
		return nil, err
	}

	var challenges []models.Challenge
	err := s.db.Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&challenges).Error
	return challenges, err
}

// Participants lists all participations of a challenge, highest
// progress first.
func (s *ChallengeService) Participants(challengeID uint) ([]models.ChallengeParticipant, error) {
	if _, err := s.GetByID(challengeID); err != nil {
		return nil, err
	}

	var participants []models.ChallengeParticipant
	err := s.db.Where("challenge_id = ?", challengeID).
		Order("current_count DESC, updated_at ASC").
		Find(&participants).Error
	return participants, err
}

// ParticipationFor returns one user's participation in a challenge.
func (s *ChallengeService) ParticipationFor(challengeID, userID uint) (*models.ChallengeParticipant, error) {
	var participant models.ChallengeParticipant
	if err := s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipationNotFound
		}
		return nil, err
	}
	return &participant, nil
}
