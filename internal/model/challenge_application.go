package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// PENDING is initial-only; APPROVED and REJECTED are terminal.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return s == ApplicationPending &&
		(next == ApplicationApproved || next == ApplicationRejected)
}

type ChallengeApplication struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_application_user_challenge" json:"user_id"`
	User            User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ChallengeID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_application_user_challenge" json:"challenge_id"`
	Challenge       Challenge         `gorm:"foreignKey:ChallengeID" json:"-"`
	Reason          string            `gorm:"size:500;not null" json:"reason"`
	Status          ApplicationStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	RejectionReason *string           `gorm:"size:500" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *ChallengeApplication) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

func (a *ChallengeApplication) IsPending() bool {
	return a.Status == ApplicationPending
}

func (a *ChallengeApplication) Approve(reviewedAt time.Time) {
	a.Status = ApplicationApproved
	a.ReviewedAt = &reviewedAt
	a.RejectionReason = nil
}

func (a *ChallengeApplication) Reject(reason string, reviewedAt time.Time) {
	a.Status = ApplicationRejected
	a.ReviewedAt = &reviewedAt
	a.RejectionReason = &reason
}
