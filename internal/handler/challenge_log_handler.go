package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/service"
	"github.com/rakarizky/habitlink/pkg/response"
	"github.com/rakarizky/habitlink/pkg/validator"
)

type ChallengeLogHandler struct {
	logService service.ChallengeLogService
}

func NewChallengeLogHandler(logService service.ChallengeLogService) *ChallengeLogHandler {
	return &ChallengeLogHandler{logService: logService}
}

func (h *ChallengeLogHandler) CreateChallengeLog(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateChallengeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challengeLog, err := h.logService.CreateChallengeLog(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challengeLog)
}

func (h *ChallengeLogHandler) GetChallengeLogs(c *gin.Context) {
	var query dto.ChallengeLogListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	logs, err := h.logService.GetChallengeLogs(c.Request.Context(), response.OptionalUserID(c), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *ChallengeLogHandler) GetChallengeLog(c *gin.Context) {
	logID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	challengeLog, err := h.logService.GetChallengeLog(c.Request.Context(), response.OptionalUserID(c), logID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challengeLog)
}

func (h *ChallengeLogHandler) ApproveChallengeLog(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	logID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req dto.ApproveChallengeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challengeLog, err := h.logService.ApproveChallengeLog(c.Request.Context(), userID, logID, req.Comment)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challengeLog)
}

func (h *ChallengeLogHandler) RejectChallengeLog(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	logID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req dto.RejectChallengeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challengeLog, err := h.logService.RejectChallengeLog(c.Request.Context(), userID, logID, req.Comment)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, challengeLog)
}
