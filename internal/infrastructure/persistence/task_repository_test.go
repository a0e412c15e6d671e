package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

var taskColumns = []string{
	"id", "instance_id", "step_index", "step_name", "assignee_id", "status",
	"comment", "due_at", "completed_at", "delegated_to", "escalated_to", "created_date",
}

func TestTaskRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM workflow_tasks WHERE id = \\? LIMIT 1").
		WithArgs("task-1").
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow("task-1", "inst-1", 0, "Manager Approval", "u-bob", "pending",
				nil, now.Add(24*time.Hour), nil, nil, nil, now))

	task, err := repo.FindByID(context.Background(), "task-1")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "inst-1", task.InstanceID)
	assert.Equal(t, constants.TaskStatusPending, task.Status)
	assert.Nil(t, task.Comment)
	assert.Nil(t, task.EscalatedTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_FindByID_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)

	mock.ExpectQuery("SELECT .* FROM workflow_tasks WHERE id = \\? LIMIT 1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(taskColumns))

	task, err := repo.FindByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	now := time.Now().UTC()
	task := &models.WorkflowTask{
		ID:          "task-1",
		InstanceID:  "inst-1",
		StepIndex:   1,
		StepName:    "Director Approval",
		AssigneeID:  "u-carol",
		Status:      constants.TaskStatusPending,
		DueAt:       now.Add(24 * time.Hour),
		CreatedDate: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_tasks")).
		WithArgs("task-1", "inst-1", 1, "Director Approval", "u-carol", "pending",
			nil, task.DueAt, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_FindOverdue_ExcludesEscalated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM workflow_tasks WHERE status = \\? AND due_at < \\? AND escalated_to IS NULL ORDER BY due_at").
		WithArgs(constants.TaskStatusPending, now).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow("task-1", "inst-1", 0, "Manager Approval", "u-bob", "pending",
				nil, now.Add(-2*time.Hour), nil, nil, nil, now.Add(-26*time.Hour)))

	tasks, err := repo.FindOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-1", tasks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Escalate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	newDue := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_tasks SET assignee_id = ?, escalated_to = ?, due_at = ? WHERE id = ?")).
		WithArgs("u-director", "u-director", newDue, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Escalate(context.Background(), "task-1", "u-director", newDue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Reassign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)

	delegatedTo := "u-carol"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_tasks SET assignee_id = ?, delegated_to = ? WHERE id = ?")).
		WithArgs("u-carol", "u-carol", "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reassign(context.Background(), "task-1", "u-carol", &delegatedTo))

	// Transfer clears the marker
	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_tasks SET assignee_id = ?, delegated_to = ? WHERE id = ?")).
		WithArgs("u-dave", nil, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reassign(context.Background(), "task-1", "u-dave", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_JoinsContextTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	tm := NewTransactionManager(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_tasks SET status = ?, comment = ?, completed_at = ? WHERE id = ?")).
		WithArgs(constants.TaskStatusApproved, nil, now, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = tm.InTransaction(context.Background(), func(txCtx context.Context) error {
		return repo.UpdateStatus(txCtx, "task-1", constants.TaskStatusApproved, nil, now)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
