package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
)

// DateLayout is the wire format for challenge start/end dates.
const DateLayout = "2006-01-02"

type CreateChallengeRequest struct {
	Name          string   `json:"name" binding:"required,max=255"`
	Description   string   `json:"description" binding:"required,max=1000"`
	Category      string   `json:"category" binding:"required,oneof=HEALTH STUDY HABIT HOBBY SOCIAL BUSINESS"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=EASY MEDIUM HARD"`
	Duration      int      `json:"duration" binding:"required,min=1"`
	StartDate     string   `json:"start_date" binding:"required"`
	EndDate       string   `json:"end_date" binding:"required"`
	MaxMembers    int      `json:"max_members" binding:"required"`
	CoverImageURL *string  `json:"cover_image_url" binding:"omitempty,url"`
	Reward        *string  `json:"reward" binding:"omitempty,max=500"`
	Tags          []string `json:"tags" binding:"omitempty,max=10"`
	IsPrivate     bool     `json:"is_private"`
	LeaderRole    string   `json:"leader_role" binding:"omitempty,oneof=PARTICIPANT MANAGER"`
}

// UpdateChallengeRequest is a partial update: nil fields keep their previous
// value. Leader, privacy, invite code, leader role and status are not
// editable through this path.
type UpdateChallengeRequest struct {
	Name          *string  `json:"name" binding:"omitempty,max=255"`
	Description   *string  `json:"description" binding:"omitempty,max=1000"`
	Category      *string  `json:"category" binding:"omitempty,oneof=HEALTH STUDY HABIT HOBBY SOCIAL BUSINESS"`
	Difficulty    *string  `json:"difficulty" binding:"omitempty,oneof=EASY MEDIUM HARD"`
	Duration      *int     `json:"duration" binding:"omitempty,min=1"`
	StartDate     *string  `json:"start_date"`
	EndDate       *string  `json:"end_date"`
	MaxMembers    *int     `json:"max_members"`
	CoverImageURL *string  `json:"cover_image_url" binding:"omitempty,url"`
	Reward        *string  `json:"reward" binding:"omitempty,max=500"`
	Tags          []string `json:"tags" binding:"omitempty,max=10"`
}

type JoinChallengeRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

type JoinByInviteCodeRequest struct {
	InviteCode string  `json:"invite_code" binding:"required,len=8"`
	Reason     *string `json:"reason" binding:"omitempty,max=500"`
}

type ApplyToChallengeRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type UpdateApplicationStatusRequest struct {
	Status          string  `json:"status" binding:"required"`
	RejectionReason *string `json:"rejection_reason" binding:"omitempty,max=500"`
}

type ChallengeListQuery struct {
	PageQuery
	Category string `form:"category" binding:"omitempty,oneof=HEALTH STUDY HABIT HOBBY SOCIAL BUSINESS"`
	Status   string `form:"status" binding:"omitempty,oneof=RECRUITING ACTIVE COMPLETED"`
	Search   string `form:"search" binding:"omitempty,max=100"`
}

type ChallengeResponse struct {
	ID             uuid.UUID                 `json:"id"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description"`
	Category       model.ChallengeCategory   `json:"category"`
	Difficulty     model.ChallengeDifficulty `json:"difficulty"`
	Duration       int                       `json:"duration"`
	StartDate      string                    `json:"start_date"`
	EndDate        string                    `json:"end_date"`
	MaxMembers     int                       `json:"max_members"`
	CurrentMembers int64                     `json:"current_members"`
	Leader         *UserResponse             `json:"leader,omitempty"`
	Status         model.ChallengeStatus     `json:"status"`
	CoverImageURL  *string                   `json:"cover_image_url,omitempty"`
	Reward         *string                   `json:"reward,omitempty"`
	Tags           []string                  `json:"tags"`
	IsPrivate      bool                      `json:"is_private"`
	InviteCode     *string                   `json:"invite_code,omitempty"`
	LeaderRole     model.LeaderRole          `json:"leader_role"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// ToChallengeResponse maps a challenge for the given viewer. The invite code
// is only included for the leader.
func ToChallengeResponse(c *model.Challenge, currentMembers int64, viewer *uuid.UUID) *ChallengeResponse {
	resp := &ChallengeResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		Category:       c.Category,
		Difficulty:     c.Difficulty,
		Duration:       c.Duration,
		StartDate:      c.StartDate.Format(DateLayout),
		EndDate:        c.EndDate.Format(DateLayout),
		MaxMembers:     c.MaxMembers,
		CurrentMembers: currentMembers,
		Leader:         ToUserResponse(&c.Leader),
		Status:         c.Status,
		CoverImageURL:  c.CoverImageURL,
		Reward:         c.Reward,
		Tags:           SplitTags(c.Tags),
		IsPrivate:      c.IsPrivate,
		LeaderRole:     c.LeaderRole,
		CreatedAt:      c.CreatedAt,
	}
	if viewer != nil && c.LeaderID == *viewer {
		resp.InviteCode = c.InviteCode
	}
	return resp
}

type PaginatedChallengeResponse struct {
	Challenges []*ChallengeResponse `json:"challenges"`
	Pagination Pagination           `json:"pagination"`
}

type ChallengeMemberResponse struct {
	User       *UserResponse `json:"user"`
	IsLeader   bool          `json:"is_leader"`
	JoinReason *string       `json:"join_reason,omitempty"`
	JoinedAt   time.Time     `json:"joined_at"`
}

type ApplicationResponse struct {
	ID              uuid.UUID               `json:"id"`
	ChallengeID     uuid.UUID               `json:"challenge_id"`
	User            *UserResponse           `json:"user,omitempty"`
	Reason          string                  `json:"reason"`
	Status          model.ApplicationStatus `json:"status"`
	ReviewedAt      *time.Time              `json:"reviewed_at,omitempty"`
	RejectionReason *string                 `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

func ToApplicationResponse(a *model.ChallengeApplication) *ApplicationResponse {
	return &ApplicationResponse{
		ID:              a.ID,
		ChallengeID:     a.ChallengeID,
		User:            ToUserResponse(&a.User),
		Reason:          a.Reason,
		Status:          a.Status,
		ReviewedAt:      a.ReviewedAt,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
	}
}

type PaginatedApplicationResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Pagination   Pagination             `json:"pagination"`
}

// JoinTags / SplitTags store tags as one comma-separated column, the way the
// entity persists them.
func JoinTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	joined := strings.Join(tags, ",")
	return &joined
}

func SplitTags(tags *string) []string {
	if tags == nil || *tags == "" {
		return []string{}
	}
	return strings.Split(*tags, ",")
}
