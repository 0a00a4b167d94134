package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/services"
	pkghttp "github.com/BradenHooton/denuncias/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*services.AuthResponse, error)
	Login(ctx context.Context, email, password string, userType *models.Role) (*services.AuthResponse, error)
	LoginWithGoogle(ctx context.Context, code string, requestedRole *models.Role) (*services.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfile(ctx context.Context, userID, name string) (*services.UserResponse, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"user_type" validate:"omitempty,oneof=citizen authority"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the authorization code obtained by the client
type GoogleLoginRequest struct {
	Code          string `json:"code" validate:"required"`
	RequestedRole string `json:"requested_role" validate:"omitempty,oneof=citizen authority"`
}

// UpdateProfileRequest represents the request body for a profile update
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// Register handles citizen self-registration
// @Summary User registration
// @Accept json
// @Param request body RegisterRequest true "Register request"
// @Produce json
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	authResp, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, authResp)
}

// Login handles email and password login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password, optionalRole(req.UserType))
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// GoogleLogin signs in with a Google authorization code
// @Summary Google sign-in
// @Accept json
// @Param request body GoogleLoginRequest true "Google login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	authResp, err := h.service.LoginWithGoogle(r.Context(), req.Code, optionalRole(req.RequestedRole))
	if err != nil {
		writeServiceError(w, err, "Google sign-in is not enabled")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// GetProfile returns the authenticated user's account
// @Router /auth/profile [get]
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile changes the authenticated user's name
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), claims.UserID, req.Name)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// ChangePassword replaces the authenticated user's password
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err, "User not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed successfully",
	})
}

// optionalRole parses an already validated role, nil when absent
func optionalRole(raw string) *models.Role {
	role, ok := models.ParseRole(raw)
	if !ok {
		return nil
	}
	return &role
}
