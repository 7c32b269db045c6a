package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipationStatus string

const (
	ParticipationJoined ParticipationStatus = "JOINED"
	ParticipationLeft   ParticipationStatus = "LEFT"
)

func (s ParticipationStatus) CanTransitionTo(next ParticipationStatus) bool {
	return s == ParticipationJoined && next == ParticipationLeft
}

// Participation links a user to a challenge. At most one row ever exists per
// (user, challenge) pair; leaving is terminal for that pair.
type Participation struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_participation_user_challenge" json:"user_id"`
	User        User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ChallengeID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_participation_user_challenge" json:"challenge_id"`
	Challenge   Challenge           `gorm:"foreignKey:ChallengeID" json:"-"`
	Status      ParticipationStatus `gorm:"size:20;not null;default:'JOINED'" json:"status"`
	JoinReason  *string             `gorm:"size:500" json:"join_reason,omitempty"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Participation) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

func (p *Participation) IsActive() bool {
	return p.Status == ParticipationJoined
}
