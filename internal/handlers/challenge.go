package handlers

import (
	"github.com/dietmate/backend/internal/middleware"
	"github.com/dietmate/backend/internal/services"
	"github.com/dietmate/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(db *gorm.DB) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: services.NewChallengeService(db),
	}
}

// Create creates a challenge inside a group
// POST /api/groups/:id/challenges
func (h *ChallengeHandler) Create(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	challenge, err := h.challengeService.Create(groupID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, challenge)
}

// ListByGroup lists a group's challenges
// GET /api/groups/:id/challenges
func (h *ChallengeHandler) ListByGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	challenges, err := h.challengeService.ListByGroup(groupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, challenges)
}

// GetByID returns one challenge
// GET /api/challenges/:id
func (h *ChallengeHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	challenge, err := h.challengeService.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, challenge)
}

// Join enrolls the caller in a challenge
// POST /api/challenges/:id/join
func (h *ChallengeHandler) Join(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	participant, err := h.challengeService.Join(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, participant)
}

// Participants lists a challenge's participants with progress
// GET /api/challenges/:id/participants
func (h *ChallengeHandler) Participants(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	participants, err := h.challengeService.Participants(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, participants)
}

// Progress returns the caller's own participation
// GET /api/challenges/:id/progress
func (h *ChallengeHandler) Progress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	participant, err := h.challengeService.ParticipationFor(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, participant)
}
