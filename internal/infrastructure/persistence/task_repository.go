package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// TaskRepository stores workflow tasks
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.WorkflowTask) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableTask,
		constants.FieldID, constants.FieldTask_InstanceID, constants.FieldTask_StepIndex,
		constants.FieldTask_StepName, constants.FieldTask_AssigneeID, constants.FieldTask_Status,
		constants.FieldTask_Comment, constants.FieldTask_DueAt, constants.FieldCreatedDate)

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		task.ID, task.InstanceID, task.StepIndex,
		task.StepName, task.AssigneeID, task.Status,
		task.Comment, task.DueAt, task.CreatedDate)
	return err
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.WorkflowTask, error) {
	query := fmt.Sprintf("%s WHERE %s = ? LIMIT 1", r.selectClause(), constants.FieldID)
	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) FindByInstanceAndStep(ctx context.Context, instanceID string, stepIndex int) ([]*models.WorkflowTask, error) {
	query := fmt.Sprintf("%s WHERE %s = ? AND %s = ? ORDER BY %s",
		r.selectClause(), constants.FieldTask_InstanceID, constants.FieldTask_StepIndex, constants.FieldCreatedDate)
	return r.queryTasks(ctx, query, instanceID, stepIndex)
}

func (r *TaskRepository) FindByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowTask, error) {
	query := fmt.Sprintf("%s WHERE %s = ? ORDER BY %s, %s",
		r.selectClause(), constants.FieldTask_InstanceID, constants.FieldTask_StepIndex, constants.FieldCreatedDate)
	return r.queryTasks(ctx, query, instanceID)
}

func (r *TaskRepository) FindPendingByAssignee(ctx context.Context, assigneeID string) ([]*models.WorkflowTask, error) {
	query := fmt.Sprintf("%s WHERE %s = ? AND %s = ? ORDER BY %s",
		r.selectClause(), constants.FieldTask_AssigneeID, constants.FieldTask_Status, constants.FieldTask_DueAt)
	return r.queryTasks(ctx, query, assigneeID, constants.TaskStatusPending)
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string, comment *string, completedAt time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = ?",
		constants.TableTask,
		constants.FieldTask_Status, constants.FieldTask_Comment, constants.FieldTask_CompletedAt,
		constants.FieldID)
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query, status, comment, completedAt, id)
	return err
}

// Reassign moves the task to a new assignee. delegatedTo is set for
// delegation (the marker survives on the task) and nil for transfer.
func (r *TaskRepository) Reassign(ctx context.Context, id, assigneeID string, delegatedTo *string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ? WHERE %s = ?",
		constants.TableTask,
		constants.FieldTask_AssigneeID, constants.FieldTask_DelegatedTo,
		constants.FieldID)
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query, assigneeID, delegatedTo, id)
	return err
}

// FindOverdue returns pending tasks past due that were never escalated.
// Escalated tasks keep escalated_to set, which excludes them from every
// later sweep: escalation is single-hop.
func (r *TaskRepository) FindOverdue(ctx context.Context, now time.Time) ([]*models.WorkflowTask, error) {
	query := fmt.Sprintf("%s WHERE %s = ? AND %s < ? AND %s IS NULL ORDER BY %s",
		r.selectClause(), constants.FieldTask_Status, constants.FieldTask_DueAt,
		constants.FieldTask_EscalatedTo, constants.FieldTask_DueAt)
	return r.queryTasks(ctx, query, constants.TaskStatusPending, now)
}

// Escalate hands the task to escalatedTo and extends its due time. The
// assignee and the escalation marker move together in one statement.
func (r *TaskRepository) Escalate(ctx context.Context, id, escalatedTo string, newDueAt time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = ?",
		constants.TableTask,
		constants.FieldTask_AssigneeID, constants.FieldTask_EscalatedTo, constants.FieldTask_DueAt,
		constants.FieldID)
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query, escalatedTo, escalatedTo, newDueAt, id)
	return err
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*models.WorkflowTask, error) {
	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.WorkflowTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) selectClause() string {
	return fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s",
		constants.FieldID, constants.FieldTask_InstanceID, constants.FieldTask_StepIndex,
		constants.FieldTask_StepName, constants.FieldTask_AssigneeID, constants.FieldTask_Status,
		constants.FieldTask_Comment, constants.FieldTask_DueAt, constants.FieldTask_CompletedAt,
		constants.FieldTask_DelegatedTo, constants.FieldTask_EscalatedTo, constants.FieldCreatedDate,
		constants.TableTask)
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*models.WorkflowTask, error) {
	var t models.WorkflowTask
	var comment, delegatedTo, escalatedTo sql.NullString
	var completedAt sql.NullTime

	err := s.Scan(&t.ID, &t.InstanceID, &t.StepIndex,
		&t.StepName, &t.AssigneeID, &t.Status,
		&comment, &t.DueAt, &completedAt,
		&delegatedTo, &escalatedTo, &t.CreatedDate)
	if err != nil {
		return nil, err
	}

	if comment.Valid {
		t.Comment = &comment.String
	}
	if completedAt.Valid {
		ct := completedAt.Time
		t.CompletedAt = &ct
	}
	if delegatedTo.Valid {
		t.DelegatedTo = &delegatedTo.String
	}
	if escalatedTo.Valid {
		t.EscalatedTo = &escalatedTo.String
	}
	return &t, nil
}
