package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

var testUser = &models.User{ID: "u1", Email: "ana@example.com", Name: "Ana", Role: models.RoleCitizen}

func okHandler(t *testing.T, check func(*models.TokenClaims)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r)
		require.NotNil(t, claims)
		if check != nil {
			check(claims)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret-for-tokens", time.Hour)

	token, err := tm.GenerateAccessToken(testUser)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, models.RoleCitizen, claims.Role)
	assert.Equal(t, "Ana", claims.Name)
}

func TestTokenManager_RejectsOtherSecretAndExpired(t *testing.T) {
	tm := NewTokenManager("test-secret-for-tokens", time.Hour)
	other := NewTokenManager("another-secret-value", time.Hour)
	expired := NewTokenManager("test-secret-for-tokens", -time.Minute)

	token, err := other.GenerateAccessToken(testUser)
	require.NoError(t, err)
	_, err = tm.ValidateToken(token)
	assert.Error(t, err)

	token, err = expired.GenerateAccessToken(testUser)
	require.NoError(t, err)
	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsWrongType(t *testing.T) {
	tm := NewTokenManager("test-secret-for-tokens", time.Hour)

	claims := &models.TokenClaims{
		Type: "refresh", UserID: "u1", Role: models.RoleCitizen,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-for-tokens"))
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.ErrorContains(t, err, "unexpected type")
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("test-secret-for-tokens", time.Hour)
	valid, err := tm.GenerateAccessToken(testUser)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + valid, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(tm)(okHandler(t, nil)).ServeHTTP(w, r)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		claims   *models.TokenClaims
		repoUser *models.User
		repoErr  error
		roles    []models.Role
		want     int
	}{
		{name: "no claims", roles: []models.Role{models.RoleCitizen}, want: http.StatusUnauthorized},
		{name: "deleted user", claims: &models.TokenClaims{UserID: "u1"}, repoErr: models.ErrNotFound, roles: []models.Role{models.RoleCitizen}, want: http.StatusUnauthorized},
		{name: "repository failure", claims: &models.TokenClaims{UserID: "u1"}, repoErr: models.ErrInternalServer, roles: []models.Role{models.RoleCitizen}, want: http.StatusInternalServerError},
		{name: "citizen on authority route", claims: &models.TokenClaims{UserID: "u1"}, repoUser: testUser, roles: []models.Role{models.RoleAuthority}, want: http.StatusForbidden},
		{name: "citizen on citizen route", claims: &models.TokenClaims{UserID: "u1"}, repoUser: testUser, roles: []models.Role{models.RoleCitizen}, want: http.StatusOK},
		{name: "any of several roles", claims: &models.TokenClaims{UserID: "u1"}, repoUser: testUser, roles: []models.Role{models.RoleAuthority, models.RoleCitizen}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return tt.repoUser, tt.repoErr
			}}

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				r = r.WithContext(WithClaims(r.Context(), tt.claims))
			}
			w := httptest.NewRecorder()

			RequireRole(repo, tt.roles...)(okHandler(t, nil)).ServeHTTP(w, r)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRole_UsesCurrentRole(t *testing.T) {
	promoted := *testUser
	promoted.Role = models.RoleAuthority
	repo := &mockUserRepo{GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
		return &promoted, nil
	}}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithClaims(r.Context(), &models.TokenClaims{UserID: "u1", Role: models.RoleCitizen}))
	w := httptest.NewRecorder()

	handler := RequireRole(repo, models.RoleAuthority)(okHandler(t, func(c *models.TokenClaims) {
		assert.Equal(t, models.RoleAuthority, c.Role)
	}))
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}
