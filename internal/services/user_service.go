package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/pkg/auth"
	"github.com/BradenHooton/denuncias/pkg/sanitize"
)

const statsWindowDays = 30

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, windowDays int) (*models.UserStats, error)
}

// UserService handles the user directory administration
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// ListUsers returns every user, newest first
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// CreateUser creates an account with any role
func (s *UserService) CreateUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	name, email, err := normalizeIdentity(name, email)
	if err != nil {
		return nil, err
	}

	if err := auth.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError("password", err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		s.logger.Info("user already exists")
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.String("user_id", created.ID), slog.String("role", created.Role.String()))
	return created, nil
}

// UpdateUser applies the administrative update path
func (s *UserService) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if upd.Name != nil {
		name, err := normalizeName(*upd.Name)
		if err != nil {
			return nil, err
		}
		upd.Name = &name
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user updated", slog.String("user_id", id))
	return updated, nil
}

// DeleteUser removes an account. An actor cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return models.NewValidationError("id", "you cannot delete your own account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", id), slog.String("actor_id", actorID))
	return nil
}

// Stats summarizes the directory over the last 30 days
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	stats, err := s.repo.Stats(ctx, statsWindowDays)
	if err != nil {
		s.logger.Error("failed to compute user stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}

// normalizeIdentity sanitizes a display name and lower-cases an email, validating both
func normalizeIdentity(name, email string) (string, string, error) {
	ve := &models.ValidationError{}

	cleanName, err := normalizeName(name)
	if nameErr, ok := models.AsValidationError(err); ok {
		ve.Fields = append(ve.Fields, nameErr.Fields...)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		ve.Fields = append(ve.Fields, models.FieldError{Field: "email", Message: "must be a valid email address"})
	}

	if len(ve.Fields) > 0 {
		return "", "", ve
	}
	return cleanName, email, nil
}

func normalizeName(name string) (string, error) {
	name = sanitize.Text(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return "", models.NewValidationError("name", "must be between 2 and 100 characters")
	}
	return name, nil
}
