package services

import "github.com/dietmate/backend/pkg/response"

// Client-facing errors shared across services. Handlers render them
// through response.Error.
var (
	ErrInvalidGroupSpec  = response.NewBadRequest("group capacity must be positive")
	ErrGroupNotFound     = response.NewNotFound("group not found")
	ErrAlreadyMember     = response.NewConflict("user is already a member of this group")
	ErrCapacityExceeded  = response.NewConflict("group is at capacity")
	ErrOwnerMustDelegate = response.NewConflict("owner must delegate ownership before leaving")
	ErrNotOwner          = response.NewForbidden("only the group owner can perform this action")
	ErrNotGroupMember    = response.NewForbidden("user is not a member of this group")
	ErrMemberNotFound    = response.NewNotFound("membership not found")

	ErrChallengeNotFound     = response.NewNotFound("challenge not found")
	ErrAlreadyJoined         = response.NewConflict("user already joined this challenge")
	ErrParticipationNotFound = response.NewNotFound("participation not found")
	ErrScoreGoalUnsupported  = response.NewBadRequest("score goal type is not supported yet")
	ErrInvalidChallengeSpec  = response.NewBadRequest("count challenges require a positive target count")

	ErrInvalidReportPeriod = response.NewBadRequest("invalid report type or period")

	ErrEmailTaken         = response.NewConflict("email is already registered")
	ErrInvalidCredentials = response.NewUnauthorized("invalid email or password")
	ErrInvalidRefresh     = response.NewUnauthorized("invalid or expired refresh token")

	ErrUserNotFound = response.NewNotFound("user not found")
)
