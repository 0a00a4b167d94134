package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetUserByID_Success(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "Test User", models.RoleCitizen)

	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	result, err := svc.GetUserByID(context.Background(), "user123")

	assert.NoError(t, err)
	assert.Equal(t, "user123", result.ID)
	assert.Equal(t, "user@example.com", result.Email)
}

func TestUserService_GetUserByID_NotFound(t *testing.T) {
	svc := NewUserService(&MockUserRepository{}, newTestLogger())

	result, err := svc.GetUserByID(context.Background(), "nonexistent")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_GetUserByID_DatabaseError(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, errors.New("connection reset")
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	_, err := svc.GetUserByID(context.Background(), "user123")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestUserService_ListUsers(t *testing.T) {
	users := []*models.User{
		NewTestUser("u2", "b@example.com", "Second", models.RoleAuthority),
		NewTestUser("u1", "a@example.com", "First", models.RoleCitizen),
	}

	mockUserRepo := &MockUserRepository{
		ListFunc: func(ctx context.Context) ([]*models.User, error) {
			return users, nil
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	result, err := svc.ListUsers(context.Background())

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, "u2", result[0].ID)
}

func TestUserService_CreateUser_Success(t *testing.T) {
	var stored *models.User
	mockUserRepo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			stored = user
			created := *user
			created.ID = "new-id"
			return &created, nil
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	result, err := svc.CreateUser(context.Background(), "  Inspector Gomez ", "Gomez@Muni.com", "Secure123pass", models.RoleAuthority)

	require.NoError(t, err)
	assert.Equal(t, "new-id", result.ID)
	assert.Equal(t, models.RoleAuthority, result.Role)
	assert.Equal(t, "gomez@muni.com", stored.Email)
	assert.Equal(t, "Inspector Gomez", stored.Name)
	assert.NotEqual(t, "Secure123pass", stored.PasswordHash)
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return NewTestUser("existing", email, "Existing", models.RoleCitizen), nil
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	_, err := svc.CreateUser(context.Background(), "New User", "taken@example.com", "Secure123pass", models.RoleCitizen)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUserService_CreateUser_ValidationCollectsFields(t *testing.T) {
	svc := NewUserService(&MockUserRepository{}, newTestLogger())

	_, err := svc.CreateUser(context.Background(), "x", "not-an-email", "Secure123pass", models.RoleCitizen)

	ve, ok := models.AsValidationError(err)
	require.True(t, ok)
	assert.ErrorIs(t, err, models.ErrBadRequest)

	fields := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email"}, fields)
}

func TestUserService_CreateUser_WeakPassword(t *testing.T) {
	svc := NewUserService(&MockUserRepository{}, newTestLogger())

	_, err := svc.CreateUser(context.Background(), "Valid Name", "valid@example.com", "short", models.RoleCitizen)

	ve, ok := models.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "password", ve.Fields[0].Field)
}

func TestUserService_UpdateUser_SanitizesName(t *testing.T) {
	var got models.UserUpdate
	mockUserRepo := &MockUserRepository{
		UpdateFunc: func(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
			got = upd
			return NewTestUser(id, "user@example.com", *upd.Name, models.RoleCitizen), nil
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	name := "<b>Maria</b> Lopez"
	result, err := svc.UpdateUser(context.Background(), "user123", models.UserUpdate{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", *got.Name)
	assert.Nil(t, got.Role)
	assert.Equal(t, "Maria Lopez", result.Name)
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		UpdateFunc: func(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	role := models.RoleAuthority
	_, err := svc.UpdateUser(context.Background(), "missing", models.UserUpdate{Role: &role})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_DeleteUser(t *testing.T) {
	tests := []struct {
		name    string
		actorID string
		id      string
		repoErr error
		wantErr error
	}{
		{name: "deletes another account", actorID: "admin", id: "user123"},
		{name: "refuses to delete self", actorID: "admin", id: "admin", wantErr: models.ErrBadRequest},
		{name: "missing user", actorID: "admin", id: "ghost", repoErr: models.ErrNotFound, wantErr: models.ErrNotFound},
		{name: "database error", actorID: "admin", id: "user123", repoErr: errors.New("boom"), wantErr: models.ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockUserRepo := &MockUserRepository{
				DeleteFunc: func(ctx context.Context, id string) error {
					called = true
					return tt.repoErr
				},
			}

			svc := NewUserService(mockUserRepo, newTestLogger())
			err := svc.DeleteUser(context.Background(), tt.actorID, tt.id)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, called)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.actorID == tt.id {
				assert.False(t, called)
			}
		})
	}
}

func TestUserService_Stats_UsesThirtyDayWindow(t *testing.T) {
	var window int
	mockUserRepo := &MockUserRepository{
		StatsFunc: func(ctx context.Context, windowDays int) (*models.UserStats, error) {
			window = windowDays
			return &models.UserStats{Total: 3, Citizens: 2, Authorities: 1}, nil
		},
	}

	svc := NewUserService(mockUserRepo, newTestLogger())

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 30, window)
	assert.Equal(t, int64(3), stats.Total)
}
