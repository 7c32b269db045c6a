package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LogStatus string

const (
	LogPending  LogStatus = "PENDING"
	LogApproved LogStatus = "APPROVED"
	LogRejected LogStatus = "REJECTED"
)

func (s LogStatus) CanTransitionTo(next LogStatus) bool {
	return s == LogPending && (next == LogApproved || next == LogRejected)
}

// ChallengeLog is a member's proof-of-completion submission, reviewed by the leader.
type ChallengeLog struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ChallengeID      uuid.UUID `gorm:"type:uuid;not null;index" json:"challenge_id"`
	Challenge        Challenge `gorm:"foreignKey:ChallengeID" json:"-"`
	Content          string    `gorm:"size:2000;not null" json:"content"`
	ImageURL         *string   `gorm:"type:text" json:"image_url,omitempty"`
	Status           LogStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	RejectionComment *string   `gorm:"size:500" json:"rejection_comment,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *ChallengeLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

func (l *ChallengeLog) IsPending() bool {
	return l.Status == LogPending
}
