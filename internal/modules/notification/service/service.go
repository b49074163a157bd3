package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"anoa.com/storefront/internal/entity"
	notifRepo "anoa.com/storefront/internal/modules/notification/repository"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel is the redis pub/sub channel carrying userID's notifications.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, page, limit int) (*dto.NotificationPage, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.redisClient == nil {
		return nil
	}

	payload, err := json.Marshal(ToDTO(notification))
	if err != nil {
		return err
	}
	if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
		// Stored already; live delivery is best effort.
		slog.Warn("publish notification", "user_id", notification.UserID, "error", err)
	}
	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page, limit int) (*dto.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	rows, total, err := s.repo.GetByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.Notification, len(rows))
	for i := range rows {
		items[i] = ToDTO(&rows[i])
	}

	return &dto.NotificationPage{
		Items: items,
		Meta: dto.PaginationMeta{
			CurrentPage: page,
			TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
			TotalItems:  total,
			Limit:       limit,
		},
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !found {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func ToDTO(n *entity.Notification) dto.Notification {
	out := dto.Notification{
		ID:         n.ID,
		EntityID:   n.EntityID,
		EntityType: n.EntityType,
		Type:       n.Type,
		Message:    n.Message,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
	}
	if n.Actor != nil {
		out.Actor = &dto.UserSummary{
			ID:        n.Actor.ID,
			Username:  n.Actor.Username,
			AvatarURL: n.Actor.AvatarURL,
		}
	}
	return out
}
