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

var templateColumns = []string{"id", "name", "resource_type", "is_active", "steps_json", "created_date"}

const sampleStepsJSON = `[
	{"index":0,"name":"Manager Approval","kind":"serial","assignee_role":"manager"},
	{"index":1,"name":"Director Approval","kind":"serial","assignee_role":"director","condition":"amount>10000"}
]`

func TestTemplateRepository_FindActiveByResourceType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTemplateRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM workflow_templates WHERE resource_type = \\? AND is_active = 1 ORDER BY created_date DESC LIMIT 1").
		WithArgs("expense").
		WillReturnRows(sqlmock.NewRows(templateColumns).
			AddRow("tpl-1", "Expense Approval", "expense", true, sampleStepsJSON, now))

	template, err := repo.FindActiveByResourceType(context.Background(), "expense")
	require.NoError(t, err)
	require.NotNil(t, template)
	require.Len(t, template.Steps, 2)
	assert.Equal(t, "Manager Approval", template.Steps[0].Name)
	require.NotNil(t, template.Steps[1].Condition)
	assert.Equal(t, "amount>10000", *template.Steps[1].Condition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_FindActiveByResourceType_None(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTemplateRepository(db)

	mock.ExpectQuery("SELECT .* FROM workflow_templates WHERE resource_type = \\?").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(templateColumns))

	template, err := repo.FindActiveByResourceType(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, template)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_CreateSerializesSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTemplateRepository(db)
	now := time.Now().UTC()
	template := &models.WorkflowTemplate{
		ID: "tpl-1", Name: "Expense Approval", ResourceType: "expense",
		IsActive: true, CreatedDate: now,
		Steps: []models.StepDefinition{
			{Index: 0, Name: "Manager Approval", Kind: constants.StepKindSerial,
				AssigneeRole: func() *string { s := "manager"; return &s }()},
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_templates")).
		WithArgs("tpl-1", "Expense Approval", "expense", true, sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), template))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepository_RoundTripContextData(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInstanceRepository(db)
	now := time.Now().UTC()
	columns := []string{"id", "template_id", "initiator_id", "resource_type", "resource_id",
		"resource_title", "status", "current_step", "context_data", "created_date", "completed_date"}

	mock.ExpectQuery("SELECT .* FROM workflow_instances WHERE id = \\? LIMIT 1 FOR UPDATE").
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("inst-1", "tpl-1", "u-alice", "expense", "exp-9", "Team offsite",
				"pending", 0, `{"amount":15000}`, now, nil))

	instance, err := repo.FindByIDForUpdate(context.Background(), "inst-1")
	require.NoError(t, err)
	require.NotNil(t, instance)
	assert.Equal(t, float64(15000), instance.ContextData["amount"])

	ctx := instance.ConditionContext()
	assert.Equal(t, "exp-9", ctx["resource_id"])
	assert.Equal(t, "expense", ctx["resource_type"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepository_HasPendingForResource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInstanceRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("expense", "exp-9", constants.InstanceStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pending, err := repo.HasPendingForResource(context.Background(), "expense", "exp-9")
	require.NoError(t, err)
	assert.True(t, pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := assert.AnError
	err = tm.InTransaction(context.Background(), func(txCtx context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
