package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/models"
	pkgauth "github.com/BradenHooton/denuncias/pkg/auth"
	pkglogger "github.com/BradenHooton/denuncias/pkg/logger"
)

// OAuthProvider exchanges an authorization code for an external identity
type OAuthProvider interface {
	Exchange(ctx context.Context, code string) (*models.ExternalIdentity, error)
}

// dummyHash is compared against when the email is unknown so both failure paths cost one bcrypt check
var dummyHash, _ = pkgauth.HashPassword("not-a-real-password-0")

// AuthService handles authentication business logic
type AuthService struct {
	repo            UserRepository
	tm              *auth.TokenManager
	oauth           OAuthProvider
	authorityDomain string
	failureDelay    *auth.FailureDelay
	logger          *slog.Logger
	auditLogger     *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService. oauth may be nil when Google sign-in is not configured.
func NewAuthService(repo UserRepository, tm *auth.TokenManager, oauth OAuthProvider, authorityDomain string, failureDelay *auth.FailureDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:            repo,
		tm:              tm,
		oauth:           oauth,
		authorityDomain: anchorDomain(authorityDomain),
		failureDelay:    failureDelay,
		logger:          logger,
		auditLogger:     auditLogger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// Register creates a citizen account and signs it in
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	name, email, err := normalizeIdentity(name, email)
	if err != nil {
		return nil, err
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError("password", err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "register_failed",
			Email:         email,
			FailureReason: "email_taken",
		})
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleCitizen,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register_success",
		UserID:    user.ID,
		Success:   true,
	})

	return s.issue(user)
}

// Login checks credentials. When userType is set the account role must match it.
// Every failure is reported as ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string, userType *models.Role) (*AuthResponse, error) {
	start := time.Now()

	fail := func(userID, reason string) (*AuthResponse, error) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        userID,
			Email:         email,
			FailureReason: reason,
		})
		s.failureDelay.WaitFrom(start)
		return nil, models.ErrUnauthorized
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fail("", "missing_credentials")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = pkgauth.ComparePassword(dummyHash, password)
			return fail("", "invalid_credentials")
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return fail(user.ID, "invalid_credentials")
	}

	if userType != nil && user.Role != *userType {
		return fail(user.ID, "role_mismatch")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return s.issue(user)
}

// LoginWithGoogle exchanges code with Google and signs the account in,
// provisioning it on first use. The authority role is granted only when it is
// requested and the email belongs to the authority domain.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code string, requestedRole *models.Role) (*AuthResponse, error) {
	if s.oauth == nil {
		return nil, models.ErrNotFound
	}

	identity, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("google code exchange failed", slog.Any("error", err))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "google_login_failed",
			FailureReason: "exchange_failed",
		})
		return nil, models.ErrUnauthorized
	}

	if !identity.EmailVerified {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "google_login_failed",
			Email:         identity.Email,
			FailureReason: "email_not_verified",
		})
		return nil, models.ErrUnauthorized
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		user, err = s.provision(ctx, identity.Name, email, requestedRole)
		if err != nil {
			return nil, err
		}
	default:
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in with google", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "google_login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return s.issue(user)
}

// anchorDomain makes sure the authority domain starts with "@"; empty disables the rule
func anchorDomain(domain string) string {
	domain = strings.TrimLeft(strings.ToLower(strings.TrimSpace(domain)), "@")
	if domain == "" {
		return ""
	}
	return "@" + domain
}

// provision creates the account of a first-time Google user with a password nobody knows
func (s *AuthService) provision(ctx context.Context, name, email string, requestedRole *models.Role) (*models.User, error) {
	role := models.RoleCitizen
	if requestedRole != nil && *requestedRole == models.RoleAuthority && s.authorityDomain != "" && strings.HasSuffix(email, s.authorityDomain) {
		role = models.RoleAuthority
	}

	name, err := normalizeName(name)
	if err != nil {
		local, _, _ := strings.Cut(email, "@")
		name = local
	}

	secret, err := pkgauth.RandomPassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	hashedPassword, err := pkgauth.HashPassword(secret)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	})
	if err != nil {
		s.logger.Error("failed to provision google user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("google user provisioned", slog.String("user_id", user.ID), slog.String("role", role.String()))
	return user, nil
}

// GetProfile returns the caller's account
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return UserModelToResponse(user), nil
}

// UpdateProfile changes the caller's display name
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name string) (*UserResponse, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Update(ctx, userID, models.UserUpdate{Name: &name})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return UserModelToResponse(user), nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, current); err != nil {
		s.auditLogger.LogPasswordChange(userID, false)
		return models.NewValidationError("current_password", "is incorrect")
	}

	if err := pkgauth.ValidatePassword(next); err != nil {
		return models.NewValidationError("new_password", err.Error())
	}

	hashedPassword, err := pkgauth.HashPassword(next)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(userID, true)
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		Token: token,
		User:  UserModelToResponse(user),
	}, nil
}

// UserModelToResponse converts a user model to its response DTO
func UserModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role.String(),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
