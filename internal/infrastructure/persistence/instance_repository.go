package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// InstanceRepository stores workflow instances. The context snapshot is a
// JSON column frozen at submission.
type InstanceRepository struct {
	db *sql.DB
}

// NewInstanceRepository creates a new InstanceRepository
func NewInstanceRepository(db *sql.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

func (r *InstanceRepository) Create(ctx context.Context, instance *models.WorkflowInstance) error {
	contextJSON, err := json.Marshal(instance.ContextData)
	if err != nil {
		return fmt.Errorf("failed to marshal context data: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableInstance,
		constants.FieldID, constants.FieldInstance_TemplateID, constants.FieldInstance_InitiatorID,
		constants.FieldInstance_ResourceType, constants.FieldInstance_ResourceID, constants.FieldInstance_ResourceTitle,
		constants.FieldInstance_Status, constants.FieldInstance_CurrentStep, constants.FieldInstance_ContextData,
		constants.FieldCreatedDate, constants.FieldInstance_CompletedDate)

	_, err = executorFrom(ctx, r.db).ExecContext(ctx, query,
		instance.ID, instance.TemplateID, instance.InitiatorID,
		instance.ResourceType, instance.ResourceID, instance.ResourceTitle,
		instance.Status, instance.CurrentStep, string(contextJSON),
		instance.CreatedDate, instance.CompletedDate)
	return err
}

func (r *InstanceRepository) FindByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := fmt.Sprintf("%s WHERE %s = ? LIMIT 1", r.selectClause(), constants.FieldID)
	return r.scanOne(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// FindByIDForUpdate locks the instance row until the enclosing transaction
// ends. Concurrent approvals of co-signer tasks serialize on this lock.
func (r *InstanceRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := fmt.Sprintf("%s WHERE %s = ? LIMIT 1 FOR UPDATE", r.selectClause(), constants.FieldID)
	return r.scanOne(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *InstanceRepository) UpdateProgress(ctx context.Context, id, status string, currentStep int, completedAt *time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = ?",
		constants.TableInstance,
		constants.FieldInstance_Status, constants.FieldInstance_CurrentStep, constants.FieldInstance_CompletedDate,
		constants.FieldID)
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query, status, currentStep, completedAt, id)
	return err
}

func (r *InstanceRepository) HasPendingForResource(ctx context.Context, resourceType, resourceID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s = ? AND %s = ?)",
		constants.TableInstance,
		constants.FieldInstance_ResourceType, constants.FieldInstance_ResourceID, constants.FieldInstance_Status)
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, resourceType, resourceID, constants.InstanceStatusPending).Scan(&exists)
	return exists, err
}

func (r *InstanceRepository) selectClause() string {
	return fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s",
		constants.FieldID, constants.FieldInstance_TemplateID, constants.FieldInstance_InitiatorID,
		constants.FieldInstance_ResourceType, constants.FieldInstance_ResourceID, constants.FieldInstance_ResourceTitle,
		constants.FieldInstance_Status, constants.FieldInstance_CurrentStep, constants.FieldInstance_ContextData,
		constants.FieldCreatedDate, constants.FieldInstance_CompletedDate,
		constants.TableInstance)
}

func (r *InstanceRepository) scanOne(row *sql.Row) (*models.WorkflowInstance, error) {
	var i models.WorkflowInstance
	var contextJSON sql.NullString
	var completedDate sql.NullTime

	err := row.Scan(&i.ID, &i.TemplateID, &i.InitiatorID,
		&i.ResourceType, &i.ResourceID, &i.ResourceTitle,
		&i.Status, &i.CurrentStep, &contextJSON,
		&i.CreatedDate, &completedDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if contextJSON.Valid && contextJSON.String != "" && contextJSON.String != "null" {
		if err := json.Unmarshal([]byte(contextJSON.String), &i.ContextData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context data for instance %s: %w", i.ID, err)
		}
	}
	if completedDate.Valid {
		t := completedDate.Time
		i.CompletedDate = &t
	}
	return &i, nil
}
