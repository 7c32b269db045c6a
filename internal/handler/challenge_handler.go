package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/service"
	"github.com/rakarizky/habitlink/pkg/response"
	"github.com/rakarizky/habitlink/pkg/validator"
)

type ChallengeHandler struct {
	challengeService service.ChallengeService
	statsService     service.StatsService
}

func NewChallengeHandler(challengeService service.ChallengeService, statsService service.StatsService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		statsService:     statsService,
	}
}

func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challenge, err := h.challengeService.CreateChallenge(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	var query dto.ChallengeListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challenges, err := h.challengeService.ListChallenges(c.Request.Context(), response.OptionalUserID(c), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), response.OptionalUserID(c), challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) GetMyChallenges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	challenges, err := h.challengeService.GetUserChallenges(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

func (h *ChallengeHandler) UpdateChallenge(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req dto.UpdateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challenge, err := h.challengeService.UpdateChallenge(c.Request.Context(), userID, challengeID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) JoinChallenge(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req dto.JoinChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challenge, err := h.challengeService.JoinChallenge(c.Request.Context(), userID, challengeID, req.Reason)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) JoinByInviteCode(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.JoinByInviteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challenge, err := h.challengeService.JoinByInviteCode(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) GetChallengeByInviteCode(c *gin.Context) {
	code := c.Param("code")

	challenge, err := h.challengeService.GetChallengeByInviteCode(c.Request.Context(), response.OptionalUserID(c), code)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) LeaveChallenge(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	challenge, err := h.challengeService.LeaveChallenge(c.Request.Context(), userID, challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) ApplyToChallenge(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req dto.ApplyToChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	application, err := h.challengeService.ApplyToChallenge(c.Request.Context(), userID, challengeID, req.Reason)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, application)
}

func (h *ChallengeHandler) UpdateApplicationStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	applicationID, err := parseIDParam(c, "applicationId")
	if err != nil {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	application, err := h.challengeService.UpdateApplicationStatus(c.Request.Context(), userID, challengeID, applicationID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, application)
}

func (h *ChallengeHandler) GetChallengeMembers(c *gin.Context) {
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	members, err := h.challengeService.GetChallengeMembers(c.Request.Context(), response.OptionalUserID(c), challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *ChallengeHandler) GetChallengeApplications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	applications, err := h.challengeService.GetChallengeApplications(c.Request.Context(), userID, challengeID, c.Query("status"), page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, applications)
}

func (h *ChallengeHandler) GetMyApplications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	applications, err := h.challengeService.GetUserApplications(c.Request.Context(), userID, c.Query("status"), page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, applications)
}

func (h *ChallengeHandler) GetMemberStats(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	stats, err := h.statsService.GetMemberStats(c.Request.Context(), userID, challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ChallengeHandler) GetParticipationSeries(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var query dto.ParticipationSeriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	series, err := h.statsService.GetParticipationSeries(c.Request.Context(), userID, challengeID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, err
	}
	return id, nil
}
