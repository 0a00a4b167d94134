package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/services"
	pkghttp "github.com/BradenHooton/denuncias/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID string, role models.Role) *http.Request {
	claims := &models.TokenClaims{
		Type:   models.TokenTypeAccess,
		UserID: userID,
		Email:  userID + "@example.com",
		Role:   role,
		Name:   "Test " + role.String(),
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParams sets chi URL parameters on the request
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc        func(ctx context.Context, name, email, password string) (*services.AuthResponse, error)
	LoginFunc           func(ctx context.Context, email, password string, userType *models.Role) (*services.AuthResponse, error)
	LoginWithGoogleFunc func(ctx context.Context, code string, requestedRole *models.Role) (*services.AuthResponse, error)
	GetProfileFunc      func(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfileFunc   func(ctx context.Context, userID, name string) (*services.UserResponse, error)
	ChangePasswordFunc  func(ctx context.Context, userID, current, next string) error
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, name, email, password)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, userType *models.Role) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, userType)
}

func (m *MockAuthService) LoginWithGoogle(ctx context.Context, code string, requestedRole *models.Role) (*services.AuthResponse, error) {
	if m.LoginWithGoogleFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.LoginWithGoogleFunc(ctx, code, requestedRole)
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, userID)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID, name string) (*services.UserResponse, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, userID, name)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, userID, current, next)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserByIDFunc func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc   func(ctx context.Context) ([]*models.User, error)
	CreateUserFunc  func(ctx context.Context, name, email, password string, role models.Role) (*models.User, error)
	UpdateUserFunc  func(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	DeleteUserFunc  func(ctx context.Context, actorID, id string) error
	StatsFunc       func(ctx context.Context) (*models.UserStats, error)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserByIDFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserByIDFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.ListUsersFunc(ctx)
}

func (m *MockUserService) CreateUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	if m.CreateUserFunc == nil {
		return nil, models.ErrConflict
	}
	return m.CreateUserFunc(ctx, name, email, password, role)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, id, upd)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, actorID, id)
}

func (m *MockUserService) Stats(ctx context.Context) (*models.UserStats, error) {
	if m.StatsFunc == nil {
		return &models.UserStats{}, nil
	}
	return m.StatsFunc(ctx)
}

// MockComplaintService implements ComplaintService for testing
type MockComplaintService struct {
	CreateFunc          func(ctx context.Context, in services.CreateComplaintInput) (*models.Complaint, error)
	GetFunc             func(ctx context.Context, id string) (*services.ComplaintDetail, error)
	FollowUpsFunc       func(ctx context.Context, id string) ([]*models.FollowUp, error)
	ListAllFunc         func(ctx context.Context) ([]*models.Complaint, error)
	ListBySubmitterFunc func(ctx context.Context, submitterID string) ([]*models.Complaint, error)
	ListByCategoryFunc  func(ctx context.Context, raw string) ([]*models.Complaint, error)
	ListByStateFunc     func(ctx context.Context, raw string) ([]*models.Complaint, error)
	SearchFunc          func(ctx context.Context, term string) ([]*models.Complaint, error)
	TransitionFunc      func(ctx context.Context, complaintID, authorityID, rawState, comment string) (*services.TransitionResult, error)
	DeleteFunc          func(ctx context.Context, id, submitterID string) error
	TrackingQRCodeFunc  func(ctx context.Context, id string) ([]byte, error)
}

func (m *MockComplaintService) Create(ctx context.Context, in services.CreateComplaintInput) (*models.Complaint, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, in)
}

func (m *MockComplaintService) Get(ctx context.Context, id string) (*services.ComplaintDetail, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

func (m *MockComplaintService) FollowUps(ctx context.Context, id string) ([]*models.FollowUp, error) {
	if m.FollowUpsFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.FollowUpsFunc(ctx, id)
}

func (m *MockComplaintService) ListAll(ctx context.Context) ([]*models.Complaint, error) {
	if m.ListAllFunc == nil {
		return []*models.Complaint{}, nil
	}
	return m.ListAllFunc(ctx)
}

func (m *MockComplaintService) ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Complaint, error) {
	if m.ListBySubmitterFunc == nil {
		return []*models.Complaint{}, nil
	}
	return m.ListBySubmitterFunc(ctx, submitterID)
}

func (m *MockComplaintService) ListByCategory(ctx context.Context, raw string) ([]*models.Complaint, error) {
	if m.ListByCategoryFunc == nil {
		return []*models.Complaint{}, nil
	}
	return m.ListByCategoryFunc(ctx, raw)
}

func (m *MockComplaintService) ListByState(ctx context.Context, raw string) ([]*models.Complaint, error) {
	if m.ListByStateFunc == nil {
		return []*models.Complaint{}, nil
	}
	return m.ListByStateFunc(ctx, raw)
}

func (m *MockComplaintService) Search(ctx context.Context, term string) ([]*models.Complaint, error) {
	if m.SearchFunc == nil {
		return []*models.Complaint{}, nil
	}
	return m.SearchFunc(ctx, term)
}

func (m *MockComplaintService) Transition(ctx context.Context, complaintID, authorityID, rawState, comment string) (*services.TransitionResult, error) {
	if m.TransitionFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.TransitionFunc(ctx, complaintID, authorityID, rawState, comment)
}

func (m *MockComplaintService) Delete(ctx context.Context, id, submitterID string) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, id, submitterID)
}

func (m *MockComplaintService) TrackingQRCode(ctx context.Context, id string) ([]byte, error) {
	if m.TrackingQRCodeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.TrackingQRCodeFunc(ctx, id)
}

// MockStatisticsService implements StatisticsService for testing
type MockStatisticsService struct {
	GeneralFunc func(ctx context.Context) (*models.GeneralStats, error)
	PeriodFunc  func(ctx context.Context, raw string, now time.Time) (*models.PeriodStats, error)
	RankingFunc func(ctx context.Context) ([]models.RankingEntry, error)
	HeatMapFunc func(ctx context.Context, raw string) ([]models.HeatPoint, error)
}

func (m *MockStatisticsService) General(ctx context.Context) (*models.GeneralStats, error) {
	if m.GeneralFunc == nil {
		return &models.GeneralStats{}, nil
	}
	return m.GeneralFunc(ctx)
}

func (m *MockStatisticsService) Period(ctx context.Context, raw string, now time.Time) (*models.PeriodStats, error) {
	if m.PeriodFunc == nil {
		return nil, models.NewValidationError("period", "must be one of dia, semana, mes, ano")
	}
	return m.PeriodFunc(ctx, raw, now)
}

func (m *MockStatisticsService) Ranking(ctx context.Context) ([]models.RankingEntry, error) {
	if m.RankingFunc == nil {
		return []models.RankingEntry{}, nil
	}
	return m.RankingFunc(ctx)
}

func (m *MockStatisticsService) HeatMap(ctx context.Context, raw string) ([]models.HeatPoint, error) {
	if m.HeatMapFunc == nil {
		return []models.HeatPoint{}, nil
	}
	return m.HeatMapFunc(ctx, raw)
}
