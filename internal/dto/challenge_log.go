package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
)

type CreateChallengeLogRequest struct {
	ChallengeID string  `json:"challenge_id" binding:"required,uuid"`
	Content     string  `json:"content" binding:"required,max=2000"`
	ImageURL    *string `json:"image_url" binding:"omitempty,url"`
}

type ApproveChallengeLogRequest struct {
	Comment *string `json:"comment" binding:"omitempty,max=500"`
}

type RejectChallengeLogRequest struct {
	Comment string `json:"comment" binding:"required,max=500"`
}

type ChallengeLogListQuery struct {
	PageQuery
	ChallengeID string `form:"challenge_id" binding:"omitempty,uuid"`
	UserID      string `form:"user_id" binding:"omitempty,uuid"`
	Status      string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

type ChallengeLogResponse struct {
	ID               uuid.UUID       `json:"id"`
	ChallengeID      uuid.UUID       `json:"challenge_id"`
	User             *UserResponse   `json:"user,omitempty"`
	Content          string          `json:"content"`
	ImageURL         *string         `json:"image_url,omitempty"`
	Status           model.LogStatus `json:"status"`
	RejectionComment *string         `json:"rejection_comment,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func ToChallengeLogResponse(l *model.ChallengeLog) *ChallengeLogResponse {
	return &ChallengeLogResponse{
		ID:               l.ID,
		ChallengeID:      l.ChallengeID,
		User:             ToUserResponse(&l.User),
		Content:          l.Content,
		ImageURL:         l.ImageURL,
		Status:           l.Status,
		RejectionComment: l.RejectionComment,
		CreatedAt:        l.CreatedAt,
	}
}

type PaginatedChallengeLogResponse struct {
	Logs       []*ChallengeLogResponse `json:"logs"`
	Pagination Pagination              `json:"pagination"`
}
