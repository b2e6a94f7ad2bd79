package models

import "time"

// Membership roles. Exactly one owner row exists per group at all times.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Group visibility.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint   `gorm:"index;not null" json:"owner_id"`
	Capacity    int    `gorm:"not null" json:"capacity"`
	Visibility  string `gorm:"size:20;default:public" json:"visibility"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Group) TableName() string { return "groups" }

// GroupMember represents a user's membership and role within a group.
// Rows are hard-deleted on leave/kick so the (group, user) unique index
// stays usable for rejoin.
type GroupMember struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	GroupID uint   `gorm:"uniqueIndex:idx_group_user;not null" json:"group_id"`
	Group   *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	UserID  uint   `gorm:"uniqueIndex:idx_group_user;not null" json:"user_id"`
	User    *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role    string `gorm:"size:20;default:member" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GroupMember) TableName() string { return "group_members" }
