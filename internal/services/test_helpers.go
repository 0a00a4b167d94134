package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/denuncias/internal/models"
	pkglogger "github.com/BradenHooton/denuncias/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	ListFunc           func(ctx context.Context) ([]*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc         func(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
	DeleteFunc         func(ctx context.Context, id string) error
	StatsFunc          func(ctx context.Context, windowDays int) (*models.UserStats, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, upd)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) Stats(ctx context.Context, windowDays int) (*models.UserStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, windowDays)
	}
	return &models.UserStats{}, nil
}

// MockComplaintRepository implements ComplaintRepository for testing
type MockComplaintRepository struct {
	CreateFunc          func(ctx context.Context, nc *models.NewComplaint) (*models.Complaint, error)
	GetByIDFunc         func(ctx context.Context, id string) (*models.Complaint, error)
	ListFunc            func(ctx context.Context) ([]*models.Complaint, error)
	ListBySubmitterFunc func(ctx context.Context, submitterID string) ([]*models.Complaint, error)
	ListByCategoryFunc  func(ctx context.Context, category models.Category) ([]*models.Complaint, error)
	ListByStateFunc     func(ctx context.Context, state models.State) ([]*models.Complaint, error)
	RecentFunc          func(ctx context.Context, limit int) ([]*models.Complaint, error)
	SearchFunc          func(ctx context.Context, term string) ([]*models.Complaint, error)
	DeleteFunc          func(ctx context.Context, id, submitterID string) (*string, error)
}

func (m *MockComplaintRepository) Create(ctx context.Context, nc *models.NewComplaint) (*models.Complaint, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, nc)
	}
	return nil, models.ErrInternalServer
}

func (m *MockComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintRepository) List(ctx context.Context) ([]*models.Complaint, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Complaint, error) {
	if m.ListBySubmitterFunc != nil {
		return m.ListBySubmitterFunc(ctx, submitterID)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) ListByCategory(ctx context.Context, category models.Category) ([]*models.Complaint, error) {
	if m.ListByCategoryFunc != nil {
		return m.ListByCategoryFunc(ctx, category)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) ListByState(ctx context.Context, state models.State) ([]*models.Complaint, error) {
	if m.ListByStateFunc != nil {
		return m.ListByStateFunc(ctx, state)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) Recent(ctx context.Context, limit int) ([]*models.Complaint, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, limit)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) Search(ctx context.Context, term string) ([]*models.Complaint, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, term)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) Delete(ctx context.Context, id, submitterID string) (*string, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, submitterID)
	}
	return nil, models.ErrNotFound
}

// MockFollowUpRepository implements FollowUpRepository for testing
type MockFollowUpRepository struct {
	ListForComplaintFunc func(ctx context.Context, complaintID string) ([]*models.FollowUp, error)
	RecentStatsFunc      func(ctx context.Context, windowDays int) ([]models.TransitionActivity, error)
}

func (m *MockFollowUpRepository) ListForComplaint(ctx context.Context, complaintID string) ([]*models.FollowUp, error) {
	if m.ListForComplaintFunc != nil {
		return m.ListForComplaintFunc(ctx, complaintID)
	}
	return []*models.FollowUp{}, nil
}

func (m *MockFollowUpRepository) RecentStats(ctx context.Context, windowDays int) ([]models.TransitionActivity, error) {
	if m.RecentStatsFunc != nil {
		return m.RecentStatsFunc(ctx, windowDays)
	}
	return []models.TransitionActivity{}, nil
}

// MockTransitionStore implements TransitionStore for testing
type MockTransitionStore struct {
	ApplyFunc func(ctx context.Context, t models.Transition) (*models.Complaint, *models.FollowUp, error)
}

func (m *MockTransitionStore) Apply(ctx context.Context, t models.Transition) (*models.Complaint, *models.FollowUp, error) {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, t)
	}
	return nil, nil, models.ErrNotFound
}

// MockPhotoStorage implements PhotoStorage for testing
type MockPhotoStorage struct {
	SaveFunc   func(filename string, size int64, r io.Reader) (string, error)
	DeleteFunc func(url string) error
}

func (m *MockPhotoStorage) Save(filename string, size int64, r io.Reader) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(filename, size, r)
	}
	return "/uploads/complaint-test.jpg", nil
}

func (m *MockPhotoStorage) Delete(url string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(url)
	}
	return nil
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	NotifyStateChangeFunc func(ctx context.Context, complaint *models.Complaint, entry *models.FollowUp) error
}

func (m *MockNotifier) NotifyStateChange(ctx context.Context, complaint *models.Complaint, entry *models.FollowUp) error {
	if m.NotifyStateChangeFunc != nil {
		return m.NotifyStateChangeFunc(ctx, complaint, entry)
	}
	return nil
}

// MockStatisticsRepository implements StatisticsRepository for testing
type MockStatisticsRepository struct {
	SummaryFunc         func(ctx context.Context) (models.Summary, error)
	CountByCategoryFunc func(ctx context.Context, since time.Time) ([]models.CategoryCount, error)
	CountByStateFunc    func(ctx context.Context, since time.Time) ([]models.StateCount, error)
	TimelineFunc        func(ctx context.Context, windowDays int) ([]models.DailyCount, error)
	RankingFunc         func(ctx context.Context, limit int) ([]models.RankingEntry, error)
	HeatMapFunc         func(ctx context.Context, categories []models.Category) ([]models.HeatPoint, error)
}

func (m *MockStatisticsRepository) Summary(ctx context.Context) (models.Summary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return models.Summary{}, nil
}

func (m *MockStatisticsRepository) CountByCategory(ctx context.Context, since time.Time) ([]models.CategoryCount, error) {
	if m.CountByCategoryFunc != nil {
		return m.CountByCategoryFunc(ctx, since)
	}
	return []models.CategoryCount{}, nil
}

func (m *MockStatisticsRepository) CountByState(ctx context.Context, since time.Time) ([]models.StateCount, error) {
	if m.CountByStateFunc != nil {
		return m.CountByStateFunc(ctx, since)
	}
	return []models.StateCount{}, nil
}

func (m *MockStatisticsRepository) Timeline(ctx context.Context, windowDays int) ([]models.DailyCount, error) {
	if m.TimelineFunc != nil {
		return m.TimelineFunc(ctx, windowDays)
	}
	return []models.DailyCount{}, nil
}

func (m *MockStatisticsRepository) Ranking(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	if m.RankingFunc != nil {
		return m.RankingFunc(ctx, limit)
	}
	return []models.RankingEntry{}, nil
}

func (m *MockStatisticsRepository) HeatMap(ctx context.Context, categories []models.Category) ([]models.HeatPoint, error) {
	if m.HeatMapFunc != nil {
		return m.HeatMapFunc(ctx, categories)
	}
	return []models.HeatPoint{}, nil
}

// MockOAuthProvider implements OAuthProvider for testing
type MockOAuthProvider struct {
	ExchangeFunc func(ctx context.Context, code string) (*models.ExternalIdentity, error)
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	return nil, models.ErrUnauthorized
}

// NewTestUser creates a test user with the given role
func NewTestUser(id, email, name string, role models.Role) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestComplaint creates a pending complaint owned by submitterID
func NewTestComplaint(id, submitterID string) *models.Complaint {
	return &models.Complaint{
		ID:             id,
		SubmitterID:    submitterID,
		Title:          "Broken street lamp",
		Description:    "The lamp on the corner has been off for a week",
		Category:       models.CategoryLighting,
		Address:        "Main St 123",
		State:          models.StatePending,
		CreatedAt:      time.Now(),
		SubmitterName:  "Ana Perez",
		SubmitterEmail: "ana@example.com",
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}
