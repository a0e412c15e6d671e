package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// NotificationRepository stores persisted notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?)",
		constants.TableNotification,
		constants.FieldID, constants.FieldNotification_RecipientID, constants.FieldNotification_Type,
		constants.FieldNotification_Title, constants.FieldNotification_Content,
		constants.FieldNotification_IsRead, constants.FieldCreatedDate)

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		notification.ID, notification.RecipientID, notification.Type,
		notification.Title, notification.Content, notification.IsRead, notification.CreatedDate)
	return err
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	query := fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = ? ORDER BY %s DESC LIMIT ?",
		constants.FieldID, constants.FieldNotification_RecipientID, constants.FieldNotification_Type,
		constants.FieldNotification_Title, constants.FieldNotification_Content,
		constants.FieldNotification_IsRead, constants.FieldCreatedDate,
		constants.TableNotification, constants.FieldNotification_RecipientID, constants.FieldCreatedDate)

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Content, &n.IsRead, &n.CreatedDate); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkAsRead flips the read flag, scoped to the recipient so users cannot
// touch each other's inboxes
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, recipientID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = 1 WHERE %s = ? AND %s = ?",
		constants.TableNotification, constants.FieldNotification_IsRead,
		constants.FieldID, constants.FieldNotification_RecipientID)
	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
