package dto

import (
	"time"

	"github.com/google/uuid"
)

// MemberStatsResponse is the derived per-member scoreboard for one challenge.
type MemberStatsResponse struct {
	User                *UserResponse `json:"user"`
	TotalSubmissions    int           `json:"total_submissions"`
	ApprovedSubmissions int           `json:"approved_submissions"`
	AchievementRate     float64       `json:"achievement_rate"`
	Streak              int           `json:"streak"`
	LastSubmissionDate  *time.Time    `json:"last_submission_date,omitempty"`
}

type ParticipationSeriesQuery struct {
	UserID    string `form:"user_id" binding:"omitempty,uuid"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// ParticipationDayResponse is one row of the per-day participation series.
// UserSubmitted is non-nil only when the series was filtered to one user.
type ParticipationDayResponse struct {
	Date              string  `json:"date"`
	ParticipationRate float64 `json:"participation_rate"`
	Submissions       int     `json:"submissions"`
	UserSubmitted     *bool   `json:"user_submitted,omitempty"`
}

type ChallengeStatsResponse struct {
	ChallengeID   uuid.UUID              `json:"challenge_id"`
	ActiveMembers int                    `json:"active_members"`
	Members       []*MemberStatsResponse `json:"members"`
}
