package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// TemplateRepository stores workflow templates; the step list is persisted
// as a JSON column
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *models.WorkflowTemplate) error {
	stepsJSON, err := template.MarshalSteps()
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?)",
		constants.TableTemplate,
		constants.FieldID, constants.FieldName, constants.FieldTemplate_ResourceType,
		constants.FieldTemplate_IsActive, constants.FieldTemplate_StepsJSON, constants.FieldCreatedDate)

	_, err = executorFrom(ctx, r.db).ExecContext(ctx, query,
		template.ID, template.Name, template.ResourceType, template.IsActive, stepsJSON, template.CreatedDate)
	return err
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	query := fmt.Sprintf("%s WHERE %s = ? LIMIT 1", r.selectClause(), constants.FieldID)
	return r.scanOne(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// FindActiveByResourceType returns the single active template for a
// resource type, or (nil, nil). Newest wins if several are active.
func (r *TemplateRepository) FindActiveByResourceType(ctx context.Context, resourceType string) (*models.WorkflowTemplate, error) {
	query := fmt.Sprintf("%s WHERE %s = ? AND %s = 1 ORDER BY %s DESC LIMIT 1",
		r.selectClause(), constants.FieldTemplate_ResourceType, constants.FieldTemplate_IsActive, constants.FieldCreatedDate)
	return r.scanOne(executorFrom(ctx, r.db).QueryRowContext(ctx, query, resourceType))
}

func (r *TemplateRepository) FindAll(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	query := fmt.Sprintf("%s ORDER BY %s DESC", r.selectClause(), constants.FieldCreatedDate)
	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*models.WorkflowTemplate, 0)
	for rows.Next() {
		template, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) selectClause() string {
	return fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s FROM %s",
		constants.FieldID, constants.FieldName, constants.FieldTemplate_ResourceType,
		constants.FieldTemplate_IsActive, constants.FieldTemplate_StepsJSON, constants.FieldCreatedDate,
		constants.TableTemplate)
}

func (r *TemplateRepository) scanOne(row *sql.Row) (*models.WorkflowTemplate, error) {
	var t models.WorkflowTemplate
	var stepsJSON string
	err := row.Scan(&t.ID, &t.Name, &t.ResourceType, &t.IsActive, &stepsJSON, &t.CreatedDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := t.UnmarshalSteps(stepsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps for template %s: %w", t.ID, err)
	}
	return &t, nil
}

func (r *TemplateRepository) scanRow(rows *sql.Rows) (*models.WorkflowTemplate, error) {
	var t models.WorkflowTemplate
	var stepsJSON string
	if err := rows.Scan(&t.ID, &t.Name, &t.ResourceType, &t.IsActive, &stepsJSON, &t.CreatedDate); err != nil {
		return nil, err
	}
	if err := t.UnmarshalSteps(stepsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps for template %s: %w", t.ID, err)
	}
	return &t, nil
}
