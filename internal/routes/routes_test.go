package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/handlers"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userDirectory map[string]*models.User

func (d userDirectory) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

type testServer struct {
	router    chi.Router
	tm        *auth.TokenManager
	users     userDirectory
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tm := auth.NewTokenManager("routes-test-secret-0123456789", time.Hour)
	users := userDirectory{
		"citizen-1":   {ID: "citizen-1", Name: "Ana", Email: "ana@example.com", Role: models.RoleCitizen},
		"authority-1": {ID: "authority-1", Name: "Luis", Email: "luis@muni.com", Role: models.RoleAuthority},
	}
	dir := t.TempDir()

	router := chi.NewRouter()
	RegisterRoutes(router, Handlers{
		Auth:       handlers.NewAuthHandler(&handlers.MockAuthService{}),
		Users:      handlers.NewUserHandler(&handlers.MockUserService{}),
		Complaints: handlers.NewComplaintHandler(&handlers.MockComplaintService{}, 5<<20),
		Statistics: handlers.NewStatisticsHandler(&handlers.MockStatisticsService{}),
	}, tm, users, dir)

	return &testServer{router: router, tm: tm, users: users, uploadDir: dir}
}

func (s *testServer) do(t *testing.T, method, path, userID string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		token, err := s.tm.GenerateAccessToken(s.users[userID])
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRoutes_PublicComplaintReads(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/complaints", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/complaints/categoria/lighting", "").Code)
}

func TestRoutes_AccessControl(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		userID string
		status int
	}{
		{"create without token", "POST", "/complaints", "", http.StatusUnauthorized},
		{"create as authority", "POST", "/complaints", "authority-1", http.StatusForbidden},
		{"own list as authority", "GET", "/complaints/usuario/mis-denuncias", "authority-1", http.StatusForbidden},
		{"own list as citizen", "GET", "/complaints/usuario/mis-denuncias", "citizen-1", http.StatusOK},
		{"transition as citizen", "PATCH", "/complaints/2b6c1f1e-7d7c-4c55-9a1c-0f7f3f5d1a10/estado", "citizen-1", http.StatusForbidden},
		{"statistics without token", "GET", "/statistics/general", "", http.StatusUnauthorized},
		{"statistics as citizen", "GET", "/statistics/general", "citizen-1", http.StatusForbidden},
		{"users as citizen", "GET", "/users", "citizen-1", http.StatusForbidden},
		{"users as authority", "GET", "/users", "authority-1", http.StatusOK},
		{"profile without token", "GET", "/auth/profile", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.userID)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRoutes_DeletedAccountLosesAccess(t *testing.T) {
	s := newTestServer(t)

	token, err := s.tm.GenerateAccessToken(s.users["authority-1"])
	require.NoError(t, err)
	delete(s.users, "authority-1")

	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_ServesUploadsWithoutListing(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.uploadDir, "complaint-a.png"), []byte("png"), 0o644))

	file := s.do(t, "GET", "/uploads/complaint-a.png", "")
	assert.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, "png", file.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/uploads/", "").Code)
}
