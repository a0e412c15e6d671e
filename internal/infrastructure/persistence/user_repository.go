package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// UserRepository is the directory backing store. It implements
// ports.Directory including the superior lookup used by escalation.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableUser,
		constants.FieldID, constants.FieldName, constants.FieldUser_Email, constants.FieldUser_Password,
		constants.FieldUser_Role, constants.FieldUser_DepartmentID, constants.FieldUser_SuperiorID,
		constants.FieldUser_IsActive, constants.FieldUser_IsAdmin, constants.FieldCreatedDate)

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.DepartmentID, user.SuperiorID,
		user.IsActive, user.IsAdmin, user.CreatedDate)
	return err
}

func (r *UserRepository) FindUser(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("%s WHERE %s = ? LIMIT 1", r.selectClause(), constants.FieldID)
	return r.scanOne(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("%s WHERE %s = ? LIMIT 1", r.selectClause(), constants.FieldUser_Email)
	return r.scanOne(executorFrom(ctx, r.db).QueryRowContext(ctx, query, email))
}

// FindActiveUserByRole picks the serial-step approver: the longest-tenured
// active holder of the role in the department. The ordering makes the pick
// deterministic across sweeps and restarts.
func (r *UserRepository) FindActiveUserByRole(ctx context.Context, departmentID, role string) (*models.User, error) {
	query := fmt.Sprintf("%s WHERE %s = ? AND %s = ? AND %s = 1 ORDER BY %s, %s LIMIT 1",
		r.selectClause(), constants.FieldUser_DepartmentID, constants.FieldUser_Role,
		constants.FieldUser_IsActive, constants.FieldCreatedDate, constants.FieldID)
	return r.scanOne(executorFrom(ctx, r.db).QueryRowContext(ctx, query, departmentID, role))
}

func (r *UserRepository) FindActiveUsersByRoles(ctx context.Context, departmentID string, roles []string) ([]*models.User, error) {
	if len(roles) == 0 {
		return []*models.User{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(roles)), ", ")
	query := fmt.Sprintf("%s WHERE %s = ? AND %s IN (%s) AND %s = 1 ORDER BY %s, %s",
		r.selectClause(), constants.FieldUser_DepartmentID, constants.FieldUser_Role,
		placeholders, constants.FieldUser_IsActive, constants.FieldCreatedDate, constants.FieldID)

	args := make([]interface{}, 0, len(roles)+1)
	args = append(args, departmentID)
	for _, role := range roles {
		args = append(args, role)
	}

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetSuperior follows the user's superior pointer one hop. Returns
// (nil, nil) when the user has no superior or the superior is inactive.
func (r *UserRepository) GetSuperior(ctx context.Context, userID string) (*models.User, error) {
	user, err := r.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.SuperiorID == nil {
		return nil, nil
	}

	superior, err := r.FindUser(ctx, *user.SuperiorID)
	if err != nil {
		return nil, err
	}
	if superior == nil || !superior.IsActive {
		return nil, nil
	}
	return superior, nil
}

func (r *UserRepository) selectClause() string {
	return fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s",
		constants.FieldID, constants.FieldName, constants.FieldUser_Email, constants.FieldUser_Password,
		constants.FieldUser_Role, constants.FieldUser_DepartmentID, constants.FieldUser_SuperiorID,
		constants.FieldUser_IsActive, constants.FieldUser_IsAdmin, constants.FieldCreatedDate,
		constants.TableUser)
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) scanRow(rows *sql.Rows) (*models.User, error) {
	return scanUser(rows)
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var password, superiorID sql.NullString

	err := s.Scan(&u.ID, &u.Name, &u.Email, &password,
		&u.Role, &u.DepartmentID, &superiorID,
		&u.IsActive, &u.IsAdmin, &u.CreatedDate)
	if err != nil {
		return nil, err
	}

	u.PasswordHash = password.String
	if superiorID.Valid {
		u.SuperiorID = &superiorID.String
	}
	return &u, nil
}
