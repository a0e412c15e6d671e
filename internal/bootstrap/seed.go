package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/infrastructure/persistence"
	"github.com/docuflow/backend/pkg/auth"
	"github.com/docuflow/backend/pkg/constants"
	"github.com/docuflow/backend/pkg/utils"
)

const (
	defaultAdminEmail    = "admin@docuflow.local"
	defaultAdminPassword = "admin123"
)

// SeedAdminUser creates the initial admin account when the directory is
// empty, so a fresh deployment can log in and register templates
func SeedAdminUser(db *sql.DB) error {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", constants.TableUser)
	if err := db.QueryRow(query).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(defaultAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		ID:           utils.GenerateID(),
		Name:         "Administrator",
		Email:        defaultAdminEmail,
		PasswordHash: hash,
		Role:         "admin",
		DepartmentID: "root",
		IsActive:     true,
		IsAdmin:      true,
		CreatedDate:  time.Now().UTC(),
	}

	users := persistence.NewUserRepository(db)
	if err := users.Create(context.Background(), admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("✅ Seeded admin user %s (change the default password)", defaultAdminEmail)
	return nil
}
