package handlers

import (
	"github.com/dietmate/backend/internal/middleware"
	"github.com/dietmate/backend/internal/services"
	"github.com/dietmate/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GoalHandler struct {
	goalService *services.GoalService
}

func NewGoalHandler(db *gorm.DB) *GoalHandler {
	return &GoalHandler{
		goalService: services.NewGoalService(db),
	}
}

// Get returns the caller's intake targets, zero-filled when unset
// GET /api/goals
func (h *GoalHandler) Get(c *gin.Context) {
	goal, err := h.goalService.Get(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, goal)
}

// Upsert creates or replaces the caller's intake targets
// PUT /api/goals
func (h *GoalHandler) Upsert(c *gin.Context) {
	var req services.UpsertGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	goal, err := h.goalService.Upsert(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, goal)
}
