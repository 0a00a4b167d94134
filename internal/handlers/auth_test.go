package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradenHooton/denuncias/internal/handlers"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authResponse(role string) *services.AuthResponse {
	return &services.AuthResponse{
		Token: "token",
		User:  &services.UserResponse{ID: "user123", Email: "ana@example.com", Name: "Ana", Role: role},
	}
}

func TestRegister_Success(t *testing.T) {
	mockService := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, name, email, password string) (*services.AuthResponse, error) {
			assert.Equal(t, "Ana", name)
			return authResponse("citizen"), nil
		},
	}

	handler := handlers.NewAuthHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/auth/register", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "Secure123pass",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	var resp services.AuthResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "token", resp.Token)
	assert.Equal(t, "citizen", resp.User.Role)
}

func TestRegister_ValidationErrorListsFields(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{})
	req := handlers.NewTestRequest(t, "POST", "/auth/register", map[string]string{
		"email": "not-an-email",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	resp := handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
	fields := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fields)
}

func TestRegister_UnknownFieldRejected(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{})
	req := handlers.NewTestRequest(t, "POST", "/auth/register", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "Secure123pass", "role": "authority",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestRegister_Conflict(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{})
	req := handlers.NewTestRequest(t, "POST", "/auth/register", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "Secure123pass",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusConflict, "conflict")
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
		wantRole   *models.Role
	}{
		{
			name:       "success",
			body:       map[string]string{"email": "ana@example.com", "password": "Secure123pass"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "with user type",
			body:       map[string]string{"email": "ana@example.com", "password": "Secure123pass", "user_type": "authority"},
			wantStatus: http.StatusOK,
			wantRole:   rolePtr(models.RoleAuthority),
		},
		{
			name:       "invalid user type",
			body:       map[string]string{"email": "ana@example.com", "password": "Secure123pass", "user_type": "admin"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad credentials",
			body:       map[string]string{"email": "ana@example.com", "password": "wrong"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string, userType *models.Role) (*services.AuthResponse, error) {
					assert.Equal(t, tt.wantRole, userType)
					if password != "Secure123pass" {
						return nil, models.ErrUnauthorized
					}
					return authResponse("citizen"), nil
				},
			}

			handler := handlers.NewAuthHandler(mockService)
			req := handlers.NewTestRequest(t, "POST", "/auth/login", tt.body)

			w := httptest.NewRecorder()
			handler.Login(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{})
	req := handlers.NewTestRequest(t, "POST", "/auth/google", map[string]string{"code": "abc"})

	w := httptest.NewRecorder()
	handler.GoogleLogin(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}

func TestGoogleLogin_PassesRequestedRole(t *testing.T) {
	mockService := &handlers.MockAuthService{
		LoginWithGoogleFunc: func(ctx context.Context, code string, requestedRole *models.Role) (*services.AuthResponse, error) {
			require.NotNil(t, requestedRole)
			assert.Equal(t, models.RoleAuthority, *requestedRole)
			return authResponse("authority"), nil
		},
	}

	handler := handlers.NewAuthHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/auth/google", map[string]string{"code": "abc", "requested_role": "authority"})

	w := httptest.NewRecorder()
	handler.GoogleLogin(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfile_RequiresClaims(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{})
	req := httptest.NewRequest("GET", "/auth/profile", nil)

	w := httptest.NewRecorder()
	handler.GetProfile(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	mockService := &handlers.MockAuthService{
		ChangePasswordFunc: func(ctx context.Context, userID, current, next string) error {
			assert.Equal(t, "user123", userID)
			return models.NewValidationError("current_password", "is incorrect")
		},
	}

	handler := handlers.NewAuthHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/auth/change-password", map[string]string{
		"current_password": "nope", "new_password": "Another456pass",
	})
	req = handlers.WithAuthContext(req, "user123", models.RoleCitizen)

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	resp := handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "current_password", resp.Fields[0].Field)
}

func TestLogin_MalformedBody(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{})
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"email":`))

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func rolePtr(r models.Role) *models.Role {
	return &r
}
