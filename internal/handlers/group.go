package handlers

import (
	"strconv"

	"github.com/dietmate/backend/internal/middleware"
	"github.com/dietmate/backend/internal/services"
	"github.com/dietmate/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(db *gorm.DB) *GroupHandler {
	return &GroupHandler{
		groupService: services.NewGroupService(db),
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// Create creates a group with the caller as owner
// POST /api/groups
func (h *GroupHandler) Create(c *gin.Context) {
	var req services.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, group)
}

// List returns the caller's groups
// GET /api/groups
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groupService.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, groups)
}

// GetByID returns one group
// GET /api/groups/:id
func (h *GroupHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, group)
}

// Join adds the caller to a group
// POST /api/groups/:id/join
func (h *GroupHandler) Join(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := h.groupService.Join(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, member)
}

// Leave removes the caller from a group
// POST /api/groups/:id/leave
func (h *GroupHandler) Leave(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Leave(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "left group"})
}

// Kick removes a member; owner only
// DELETE /api/groups/:id/members/:userId
func (h *GroupHandler) Kick(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	if err := h.groupService.Kick(id, middleware.GetUserID(c), targetID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member removed"})
}

// Delegate transfers ownership to another member
// POST /api/groups/:id/delegate
func (h *GroupHandler) Delegate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		NewOwnerID uint `json:"new_owner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.groupService.DelegateOwnership(id, middleware.GetUserID(c), req.NewOwnerID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "ownership delegated"})
}

// Members lists a group's members
// GET /api/groups/:id/members
func (h *GroupHandler) Members(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	members, err := h.groupService.Members(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}

// Ranking returns the group leaderboard
// GET /api/groups/:id/ranking
func (h *GroupHandler) Ranking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	rankers, err := h.groupService.Ranking(id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, rankers)
}
