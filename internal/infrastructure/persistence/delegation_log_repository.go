package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// DelegationLogRepository is the append-only handoff ledger. Rows are never
// updated or deleted.
type DelegationLogRepository struct {
	db *sql.DB
}

// NewDelegationLogRepository creates a new DelegationLogRepository
func NewDelegationLogRepository(db *sql.DB) *DelegationLogRepository {
	return &DelegationLogRepository{db: db}
}

func (r *DelegationLogRepository) Append(ctx context.Context, entry *models.DelegationLogEntry) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?)",
		constants.TableDelegationLog,
		constants.FieldID, constants.FieldLog_TaskID, constants.FieldLog_FromUserID,
		constants.FieldLog_ToUserID, constants.FieldLog_Action, constants.FieldLog_Reason,
		constants.FieldLog_DelegatedAt)

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		entry.ID, entry.TaskID, entry.FromUserID,
		entry.ToUserID, entry.Action, entry.Reason, entry.DelegatedAt)
	return err
}

// List returns entries newest first. taskID filters to one task when
// non-empty.
func (r *DelegationLogRepository) List(ctx context.Context, taskID string, offset, limit int) ([]*models.DelegationLogEntry, error) {
	selectClause := fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s, %s FROM %s",
		constants.FieldID, constants.FieldLog_TaskID, constants.FieldLog_FromUserID,
		constants.FieldLog_ToUserID, constants.FieldLog_Action, constants.FieldLog_Reason,
		constants.FieldLog_DelegatedAt, constants.TableDelegationLog)

	var query string
	var args []interface{}
	if taskID != "" {
		query = fmt.Sprintf("%s WHERE %s = ? ORDER BY %s DESC LIMIT ? OFFSET ?",
			selectClause, constants.FieldLog_TaskID, constants.FieldLog_DelegatedAt)
		args = []interface{}{taskID, limit, offset}
	} else {
		query = fmt.Sprintf("%s ORDER BY %s DESC LIMIT ? OFFSET ?",
			selectClause, constants.FieldLog_DelegatedAt)
		args = []interface{}{limit, offset}
	}

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.DelegationLogEntry, 0)
	for rows.Next() {
		var e models.DelegationLogEntry
		var reason sql.NullString
		if err := rows.Scan(&e.ID, &e.TaskID, &e.FromUserID, &e.ToUserID, &e.Action, &reason, &e.DelegatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			e.Reason = &reason.String
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
