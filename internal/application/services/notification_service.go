package services

import (
	"context"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
	"github.com/docuflow/backend/pkg/utils"
)

// NotificationService persists notifications and serves the inbox endpoints.
// It implements ports.Notifier for the workflow engine.
type NotificationService struct {
	notifications ports.NotificationRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifications ports.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// Notify stores a notification for the recipient. Engine call sites wrap
// this best-effort; the error is returned so callers can log it.
func (s *NotificationService) Notify(ctx context.Context, userID, notificationType, title, content string) error {
	notification := &models.Notification{
		ID:          utils.GenerateID(),
		RecipientID: userID,
		Type:        notificationType,
		Title:       title,
		Content:     content,
		IsRead:      false,
		CreatedDate: time.Now().UTC(),
	}
	return s.notifications.Create(ctx, notification)
}

// GetMyNotifications returns recent notifications for the user, newest first
func (s *NotificationService) GetMyNotifications(ctx context.Context, user *models.UserSession) ([]*models.Notification, error) {
	return s.notifications.ListByRecipient(ctx, user.ID, 20)
}

// MarkAsRead marks one of the caller's notifications as read
func (s *NotificationService) MarkAsRead(ctx context.Context, id string, user *models.UserSession) error {
	return s.notifications.MarkAsRead(ctx, id, user.ID)
}
