package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuflow/backend/internal/application/services"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
