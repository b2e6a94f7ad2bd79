package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dietmate/backend/internal/models"
	"github.com/dietmate/backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupService owns groups and memberships. All membership mutations on
// a group are serialized through a per-group lock plus a DB transaction
// so the single-owner and capacity invariants hold at every observable
// point.
type GroupService struct {
	db    *gorm.DB
	locks *keyedMutex
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db, locks: newKeyedMutex()}
}

func groupLockKey(groupID uint) string {
	return fmt.Sprintf("group:%d", groupID)
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
	Visibility  string `json:"visibility"`
}

// Create creates the group and its owner membership in one transaction.
func (s *GroupService) Create(ownerID uint, req *CreateGroupRequest) (*models.Group, error) {
	if req.Capacity <= 0 {
		return nil, ErrInvalidGroupSpec
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     ownerID,
		Capacity:    req.Capacity,
		Visibility:  visibility,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		owner := models.GroupMember{
			GroupID: group.ID,
			UserID:  ownerID,
			Role:    models.RoleOwner,
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		return nil, err
	}

	LogActivity(ownerID, "group", "create", group.Name)
	return group, nil
}

// Join adds a member. The capacity check and insert run under the
// group's lock and a transaction so two joins racing for the last slot
// cannot both succeed.
func (s *GroupService) Join(groupID, userID uint) (*models.GroupMember, error) {
	unlock := s.locks.Lock(groupLockKey(groupID))
	defer unlock()

	var member models.GroupMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// SQLite has no row locks; the per-group mutex covers it there.
		query := tx
		if tx.Dialector.Name() != "sqlite" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var group models.Group
		if err := query.First(&group, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var existing models.GroupMember
		err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&existing).Error
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&models.GroupMember{}).
			Where("group_id = ?", groupID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(group.Capacity) {
			return ErrCapacityExceeded
		}

		member = models.GroupMember{
			GroupID: groupID,
			UserID:  userID,
			Role:    models.RoleMember,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	LogActivity(userID, "group", "join", fmt.Sprintf("group %d", groupID))
	return &member, nil
}

// Leave removes the caller's membership. An owner must delegate first
// unless nobody else is left, in which case the group is deleted along
// with the final membership.
func (s *GroupService) Leave(groupID, userID uint) error {
	unlock := s.locks.Lock(groupLockKey(groupID))
	defer unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var member models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		if member.Role == models.RoleOwner {
			var others int64
			if err := tx.Model(&models.GroupMember{}).
				Where("group_id = ? AND user_id != ?", groupID, userID).
				Count(&others).Error; err != nil {
				return err
			}
			if others > 0 {
				return ErrOwnerMustDelegate
			}
			// Sole owner leaving: remove the group instead of
			// leaving it ownerless.
			if err := tx.Delete(&member).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Group{}, groupID).Error
		}

		return tx.Delete(&member).Error
	})
	if err != nil {
		return err
	}

	LogActivity(userID, "group", "leave", fmt.Sprintf("group %d", groupID))
	return nil
}

// Kick removes a target member. Only the current owner may kick.
func (s *GroupService) Kick(groupID, actingUserID, targetUserID uint) error {
	unlock := s.locks.Lock(groupLockKey(groupID))
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var acting models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, actingUserID).
			First(&acting).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotOwner
			}
			return err
		}
		if acting.Role != models.RoleOwner {
			return ErrNotOwner
		}

		var target models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, targetUserID).
			First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		return tx.Delete(&target).Error
	})
}

// DelegateOwnership swaps the owner and member roles and updates the
// group's owner pointer in a single transaction, so no observer ever
// sees zero or two owner rows.
func (s *GroupService) DelegateOwnership(groupID, actingUserID, newOwnerID uint) error {
	unlock := s.locks.Lock(groupLockKey(groupID))
	defer unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var acting models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, actingUserID).
			First(&acting).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotOwner
			}
			return err
		}
		if acting.Role != models.RoleOwner {
			return ErrNotOwner
		}

		var successor models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, newOwnerID).
			First(&successor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		if err := tx.Model(&acting).Update("role", models.RoleMember).Error; err != nil {
			return err
		}
		if err := tx.Model(&successor).Update("role", models.RoleOwner).Error; err != nil {
			return err
		}
		return tx.Model(&models.Group{}).Where("id = ?", groupID).
			Update("owner_id", newOwnerID).Error
	})
	if err != nil {
		return err
	}

	logger.Infof("[Group] ownership of group %d delegated from user %d to user %d",
		groupID, actingUserID, newOwnerID)
	LogActivity(actingUserID, "group", "delegate", fmt.Sprintf("group %d to user %d", groupID, newOwnerID))
	return nil
}

// RankerStat is one entry of a group ranking: a member's aggregate meal
// stats over the ranking period.
type RankerStat struct {
	UserID      uint    `json:"user_id"`
	Nickname    string  `json:"nickname"`
	MealCount   int64   `json:"meal_count"`
	AvgScore    float64 `json:"avg_score"`
	AvgCalories float64 `json:"avg_calories"`
	AvgProtein  float64 `json:"avg_protein"`
}

// Ranking returns the top members of a group by average meal score over
// the last 30 days.
func (s *GroupService) Ranking(groupID uint, limit int) ([]RankerStat, error) {
	if limit <= 0 {
		limit = 10
	}
	since := time.Now().AddDate(0, 0, -30)
	return s.rankerStats(groupID, since, time.Now(), limit)
}

func (s *GroupService) rankerStats(groupID uint, start, end time.Time, limit int) ([]RankerStat, error) {
	if exists, err := s.exists(groupID); err != nil {
		return nil, err
	} else if !exists {
		return nil, ErrGroupNotFound
	}

	var rankers []RankerStat
	err := s.db.Model(&models.MealRecord{}).
		Select(`
			meal_records.user_id,
			MAX(users.nickname) as nickname,
			COUNT(*) as meal_count,
			COALESCE(AVG(meal_records.score), 0) as avg_score,
			COALESCE(AVG(meal_records.calories), 0) as avg_calories,
			COALESCE(AVG(meal_records.protein), 0) as avg_protein
		`).
		Joins("JOIN group_members ON group_members.user_id = meal_records.user_id AND group_members.group_id = ?", groupID).
		Joins("JOIN users ON users.id = meal_records.user_id").
		Where("meal_records.eaten_at BETWEEN ? AND ?", start, end).
		Group("meal_records.user_id").
		Order("avg_score DESC").
		Limit(limit).
		Scan(&rankers).Error
	if err != nil {
		return nil, err
	}
	return rankers, nil
}

func (s *GroupService) exists(groupID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Group{}).Where("id = ?", groupID).Count(&count).Error
	return count > 0, err
}

// GetByID returns a group or ErrGroupNotFound.
func (s *GroupService) GetByID(groupID uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// Members lists a group's memberships with user info preloaded.
func (s *GroupService) Members(groupID uint) ([]models.GroupMember, error) {
	if exists, err := s.exists(groupID); err != nil {
		return nil, err
	} else if !exists {
		return nil, ErrGroupNotFound
	}

	var members []models.GroupMember
	err := s.db.Preload("User").
		Where("group_id = ?", groupID).
		Order("role DESC, created_at ASC").
		Find(&members).Error
	return members, err
}

// ListForUser lists the groups a user belongs to.
func (s *GroupService) ListForUser(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at ASC").
		Find(&groups).Error
	return groups, err
}

// MembershipFor returns a user's membership in a group, if any.
func (s *GroupService) MembershipFor(groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}
