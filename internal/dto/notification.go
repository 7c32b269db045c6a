package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
)

type NotificationListQuery struct {
	PageQuery
	IsRead *bool  `form:"is_read"`
	Type   string `form:"type"`
}

type NotificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	Type      model.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	IsRead    bool                   `json:"is_read"`
	RelatedID *string                `json:"related_id,omitempty"`
	ActionURL *string                `json:"action_url,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func ToNotificationResponse(n *model.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		RelatedID: n.RelatedID,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	}
}

type PaginatedNotificationResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
	Pagination    Pagination              `json:"pagination"`
}
