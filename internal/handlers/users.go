package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/services"
	pkghttp "github.com/BradenHooton/denuncias/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserService defines the interface for user administration
type UserService interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error
	Stats(ctx context.Context) (*models.UserStats, error)
}

// UserHandler handles user administration HTTP requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Request/Response DTOs

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=citizen authority"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
	Role *string `json:"role" validate:"omitempty,oneof=citizen authority"`
}

// ListUsersResponse represents a list of users
type ListUsersResponse struct {
	Users []*services.UserResponse `json:"users"`
	Total int                      `json:"total"`
}

// RegisterRoutes registers all user routes with the chi router. The caller
// guards the group with the authority role.
func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)                  // GET /users
		r.Post("/", h.CreateUser)                // POST /users
		r.Get("/estadisticas/usuarios", h.Stats) // GET /users/estadisticas/usuarios
		r.Get("/{id}", h.GetUser)                // GET /users/{id}
		r.Put("/{id}", h.UpdateUser)             // PUT /users/{id}
		r.Delete("/{id}", h.DeleteUser)          // DELETE /users/{id}
	})
}

// GetUser retrieves a user by ID
//
// @Summary Get user by ID
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !validID(userID) {
		pkghttp.WriteNotFound(w, "User not found")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.UserModelToResponse(user))
}

// ListUsers retrieves every user, newest first
//
// @Summary List users
// @Produce json
// @Success 200 {object} ListUsersResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	responses := make([]*services.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, services.UserModelToResponse(user))
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListUsersResponse{
		Users: responses,
		Total: len(responses),
	})
}

// CreateUser creates an account with an explicit role
//
// @Summary Create user
// @Accept json
// @Param request body CreateUserRequest true "User"
// @Produce json
// @Success 201 {object} services.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Name, req.Email, req.Password, models.Role(req.Role))
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, services.UserModelToResponse(user))
}

// UpdateUser changes a user's name and/or role
//
// @Summary Update user
// @Param id path string true "User ID"
// @Accept json
// @Param request body UpdateUserRequest true "Fields to change"
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !validID(userID) {
		pkghttp.WriteNotFound(w, "User not found")
		return
	}

	var req UpdateUserRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	upd := models.UserUpdate{Name: req.Name}
	if req.Role != nil {
		role := models.Role(*req.Role)
		upd.Role = &role
	}

	user, err := h.service.UpdateUser(r.Context(), userID, upd)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.UserModelToResponse(user))
}

// DeleteUser removes an account other than the caller's
//
// @Summary Delete user
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	userID := chi.URLParam(r, "id")
	if !validID(userID) {
		pkghttp.WriteNotFound(w, "User not found")
		return
	}

	if err := h.service.DeleteUser(r.Context(), claims.UserID, userID); err != nil {
		writeServiceError(w, err, "User not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats summarizes the user directory
//
// @Summary User statistics
// @Produce json
// @Success 200 {object} models.UserStats
// @Router /users/estadisticas/usuarios [get]
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
