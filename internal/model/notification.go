package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationChallengeApproved    NotificationType = "CHALLENGE_APPROVED"
	NotificationChallengeRejected    NotificationType = "CHALLENGE_REJECTED"
	NotificationGroupJoined          NotificationType = "GROUP_JOINED"
	NotificationGroupStarted         NotificationType = "GROUP_STARTED"
	NotificationGroupEnded           NotificationType = "GROUP_ENDED"
	NotificationApplicationApproved  NotificationType = "APPLICATION_APPROVED"
	NotificationApplicationRejected  NotificationType = "APPLICATION_REJECTED"
	NotificationNewChallengeLog      NotificationType = "NEW_CHALLENGE_LOG"
	NotificationNewApplication       NotificationType = "NEW_APPLICATION"
	NotificationDailyReminder        NotificationType = "DAILY_REMINDER"
	NotificationDailyApprovalSummary NotificationType = "DAILY_APPROVAL_SUMMARY"
	NotificationSystem               NotificationType = "SYSTEM"
)

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User            `gorm:"foreignKey:UserID" json:"-"`
	Type      NotificationType `gorm:"size:50;not null" json:"type"`
	Title     string           `gorm:"size:100;not null" json:"title"`
	Message   string           `gorm:"size:500;not null" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	RelatedID *string          `gorm:"size:64" json:"related_id,omitempty"`
	ActionURL *string          `gorm:"size:500" json:"action_url,omitempty"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
