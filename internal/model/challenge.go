package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengeCategory string

const (
	CategoryHealth   ChallengeCategory = "HEALTH"
	CategoryStudy    ChallengeCategory = "STUDY"
	CategoryHabit    ChallengeCategory = "HABIT"
	CategoryHobby    ChallengeCategory = "HOBBY"
	CategorySocial   ChallengeCategory = "SOCIAL"
	CategoryBusiness ChallengeCategory = "BUSINESS"
)

type ChallengeDifficulty string

const (
	DifficultyEasy   ChallengeDifficulty = "EASY"
	DifficultyMedium ChallengeDifficulty = "MEDIUM"
	DifficultyHard   ChallengeDifficulty = "HARD"
)

type ChallengeStatus string

const (
	ChallengeRecruiting ChallengeStatus = "RECRUITING"
	ChallengeActive     ChallengeStatus = "ACTIVE"
	ChallengeCompleted  ChallengeStatus = "COMPLETED"
)

// challengeTransitions is the one-directional lifecycle: RECRUITING → ACTIVE → COMPLETED.
var challengeTransitions = map[ChallengeStatus]ChallengeStatus{
	ChallengeRecruiting: ChallengeActive,
	ChallengeActive:     ChallengeCompleted,
}

func (s ChallengeStatus) CanTransitionTo(next ChallengeStatus) bool {
	return challengeTransitions[s] == next
}

type LeaderRole string

const (
	// LeaderParticipant means the leader auto-joins the challenge as a member.
	LeaderParticipant LeaderRole = "PARTICIPANT"
	// LeaderManager means the leader administers the challenge without participating.
	LeaderManager LeaderRole = "MANAGER"
)

type Challenge struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string              `gorm:"size:255;not null" json:"name"`
	Description   string              `gorm:"size:1000;not null" json:"description"`
	Category      ChallengeCategory   `gorm:"size:20;not null" json:"category"`
	Difficulty    ChallengeDifficulty `gorm:"size:20;not null" json:"difficulty"`
	Duration      int                 `gorm:"not null" json:"duration"` // days, informational
	StartDate     time.Time           `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time           `gorm:"type:date;not null" json:"end_date"`
	MaxMembers    int                 `gorm:"not null" json:"max_members"`
	LeaderID      uuid.UUID           `gorm:"type:uuid;not null" json:"leader_id"`
	Leader        User                `gorm:"foreignKey:LeaderID" json:"leader,omitempty"`
	Status        ChallengeStatus     `gorm:"size:20;not null;default:'RECRUITING'" json:"status"`
	CoverImageURL *string             `gorm:"type:text" json:"cover_image_url,omitempty"`
	Reward        *string             `gorm:"size:500" json:"reward,omitempty"`
	Tags          *string             `gorm:"size:500" json:"tags,omitempty"` // comma separated
	IsPrivate     bool                `gorm:"not null;default:false" json:"is_private"`
	InviteCode    *string             `gorm:"size:8;uniqueIndex" json:"invite_code,omitempty"`
	LeaderRole    LeaderRole          `gorm:"size:20;not null;default:'PARTICIPANT'" json:"leader_role"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

func (c *Challenge) IsLeader(userID uuid.UUID) bool {
	return c.LeaderID == userID
}
