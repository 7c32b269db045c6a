package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Notifier is the narrow fire-and-forget contract other services depend on.
// Callers log delivery errors and keep going; a failed notification never
// rolls back the operation that produced it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, relatedID, actionURL *string) error
}

type NotificationService interface {
	Notifier
	GetNotifications(ctx context.Context, userID uuid.UUID, query dto.NotificationListQuery) (*dto.PaginatedNotificationResponse, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, userID, notificationID uuid.UUID) error
}

type notificationService struct {
	repo        repository.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, relatedID, actionURL *string) error {
	notification := &model.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
		ActionURL: actionURL,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	// Publish for the live feed when Redis is configured.
	if s.redisClient != nil {
		channel := fmt.Sprintf("user_notifications:%s", userID.String())
		if payload, err := json.Marshal(dto.ToNotificationResponse(notification)); err == nil {
			s.redisClient.Publish(ctx, channel, payload)
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, query dto.NotificationListQuery) (*dto.PaginatedNotificationResponse, error) {
	query.Normalize()

	var notifType *model.NotificationType
	if query.Type != "" {
		t := model.NotificationType(query.Type)
		notifType = &t
	}

	notifications, total, err := s.repo.FindByUser(ctx, userID, query.IsRead, notifType, query.Offset(), query.Limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, dto.ToNotificationResponse(n))
	}

	return &dto.PaginatedNotificationResponse{
		Notifications: items,
		UnreadCount:   unread,
		Pagination:    dto.NewPagination(query.Page, query.Limit, total),
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	notification, err := s.findOwned(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if notification.IsRead {
		return nil
	}
	notification.IsRead = true
	return s.repo.Save(ctx, notification)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) DeleteNotification(ctx context.Context, userID, notificationID uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, notificationID)
}

func (s *notificationService) findOwned(ctx context.Context, userID, notificationID uuid.UUID) (*model.Notification, error) {
	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if notification.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return notification, nil
}
