package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
	"github.com/docuflow/backend/pkg/auth"
	appErrors "github.com/docuflow/backend/pkg/errors"
)

// AuthService handles login and token issuance
type AuthService struct {
	directory ports.Directory
}

// NewAuthService creates a new AuthService
func NewAuthService(directory ports.Directory) *AuthService {
	return &AuthService{directory: directory}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string             `json:"token"`
	User      models.UserSession `json:"user"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// Login authenticates by email and password and issues a JWT. Inactive
// users cannot log in even with valid credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.directory.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, appErrors.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		log.Printf("⚠️ Login failed for %s: account deactivated", email)
		return nil, appErrors.NewUnauthorizedError("Account is deactivated")
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, appErrors.NewUnauthorizedError("Invalid email or password")
	}

	session := auth.UserSession{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		IsAdmin:      user.IsAdmin,
	}
	token, err := auth.GenerateToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("✅ User logged in: %s (%s)", user.Name, user.Email)
	return &LoginResult{
		Token: token,
		User: models.UserSession{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			DepartmentID: user.DepartmentID,
			IsAdmin:      user.IsAdmin,
		},
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}
