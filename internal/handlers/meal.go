package handlers

import (
	"time"

	"github.com/dietmate/backend/internal/middleware"
	"github.com/dietmate/backend/internal/services"
	"github.com/dietmate/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type MealHandler struct {
	mealService *services.MealService
}

func NewMealHandler(mealService *services.MealService) *MealHandler {
	return &MealHandler{mealService: mealService}
}

// Record analyzes and stores a meal, advancing challenge progress when
// a challenge is named
// POST /api/meals
func (h *MealHandler) Record(c *gin.Context) {
	var req services.RecordMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.mealService.Record(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// List returns the caller's meals for a period, defaulting to the last
// 7 days
// GET /api/meals?from=2025-01-01&to=2025-01-07
func (h *MealHandler) List(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -7)

	if v := c.Query("from"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			response.BadRequest(c, "invalid from date")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			response.BadRequest(c, "invalid to date")
			return
		}
		to = parsed.Add(24*time.Hour - time.Second)
	}

	meals, err := h.mealService.ListForUser(middleware.GetUserID(c), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, meals)
}
