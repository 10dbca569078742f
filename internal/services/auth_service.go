package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/surveybd/survey-service/internal/events"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

// Permission names an operation gated by role.
type Permission string

const (
	PermCreateSurvey  Permission = "survey:create"
	PermViewAll       Permission = "survey:view_all"
	PermManageUsers   Permission = "users:manage"
	PermViewAuditLogs Permission = "audit:view"
	PermRespond       Permission = "response:submit"
)

// rolePermissions is the static grant table. Admin inherits everything
// below it; creators author surveys; respondents only answer.
var rolePermissions = map[models.UserRole]map[Permission]bool{
	models.RoleAdmin: {
		PermCreateSurvey:  true,
		PermViewAll:       true,
		PermManageUsers:   true,
		PermViewAuditLogs: true,
		PermRespond:       true,
	},
	models.RoleCreator: {
		PermCreateSurvey: true,
		PermRespond:      true,
	},
	models.RoleRespondent: {
		PermRespond: true,
	},
}

type authService struct {
	repo       repositories.Repository
	logger     *slog.Logger
	validator  *validator.Validator
	publisher  events.EventPublisher
	sessionTTL time.Duration
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, sessionTTL time.Duration) AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 168 * time.Hour
	}
	return &authService{
		repo:       repo,
		logger:     logger,
		validator:  v,
		publisher:  publisher,
		sessionTTL: sessionTTL,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Burn a hash comparison so the miss costs the same as a
			// wrong password.
			bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGyUsvSd3b4eV0OBhz7CnWVIHxA6T6lu"), []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		// Indistinguishable from a bad password; login never reveals
		// whether an account exists or is disabled.
		return nil, ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, user, "login", nil)

	if err := s.publisher.Publish(ctx, events.UserLoggedIn, events.UserEvent{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish login event", "error", err, "user_id", user.ID)
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)

	return &AuthResult{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// startSession issues a fresh opaque token, evicting any prior session so
// a user holds at most one.
func (s *authService) startSession(ctx context.Context, user *models.User) (*models.Session, error) {
	if err := s.repo.Session().DeleteByUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to clear previous sessions: %w", err)
	}

	session := &models.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	session, err := s.repo.Session().GetByToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := s.repo.Session().Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if user, err := s.repo.User().GetByID(ctx, session.UserID); err == nil {
		s.audit(ctx, user, "logout", nil)
	}

	return nil
}

func (s *authService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := s.repo.Session().GetByToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if session.Expired(time.Now()) {
		// Lazy cleanup; the row is dead either way.
		_ = s.repo.Session().Delete(ctx, token)
		return nil, ErrInvalidSession
	}

	user, err := s.repo.User().GetByID(ctx, session.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			_ = s.repo.Session().Delete(ctx, token)
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive {
		// A deactivated account invalidates its session too.
		_ = s.repo.Session().Delete(ctx, token)
		return nil, ErrAccountDisabled
	}

	return user, nil
}

func (s *authService) Can(user *models.User, permission Permission) bool {
	if user == nil {
		return false
	}
	return rolePermissions[user.Role][permission]
}

func (s *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.Session().DeleteExpired(ctx, time.Now())
}

func (s *authService) audit(ctx context.Context, user *models.User, action string, metadata map[string]interface{}) {
	writeAudit(ctx, s.repo, s.logger, user, action, metadata)
}
