package rest

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/docuflow/backend/internal/domain/models"
)

// NotificationService defines the interface for inbox operations
type NotificationService interface {
	GetMyNotifications(ctx context.Context, user *models.UserSession) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, id string, user *models.UserSession) error
}

// NotificationHandler handles notification inbox endpoints
type NotificationHandler struct {
	svc NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "notifications", func() (interface{}, error) {
		return h.svc.GetMyNotifications(c.Request.Context(), user)
	})
}

// MarkAsRead handles PATCH /api/notifications/:notificationId/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	notificationID := c.Param("notificationId")
	user := GetUserFromContext(c)
	HandleActionEnvelope(c, "Notification marked as read", func() error {
		return h.svc.MarkAsRead(c.Request.Context(), notificationID, user)
	})
}
