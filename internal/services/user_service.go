package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) UserService {
	return &userService{repo: repo, logger: logger, validator: v}
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest, actor *models.User) (*models.User, error) {
	if err := s.requireAdmin(actor, "", "create"); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.User().ExistsByEmail(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        addr,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, err
	}

	writeAudit(ctx, s.repo, s.logger, actor, "user_create", map[string]interface{}{"target_user_id": user.ID, "role": user.Role})
	s.logger.InfoContext(ctx, "User created by admin", "user_id", user.ID, "actor_id", actor.ID)

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string, actor *models.User) (*models.User, error) {
	// Everyone may read their own account; only admins read others.
	if actor.ID != id {
		if err := s.requireAdmin(actor, id, "read"); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, actor *models.User) (*UserListResponse, error) {
	if err := s.requireAdmin(actor, "", "list"); err != nil {
		return nil, err
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		// List reads degrade to an empty collection; writes propagate.
		s.logger.WarnContext(ctx, "User list read failed", "error", err)
		users, total = nil, 0
	}
	return &UserListResponse{Users: users, Total: total}, nil
}

func (s *userService) Update(ctx context.Context, id string, req *UpdateUserRequest, actor *models.User) (*models.User, error) {
	if err := s.requireAdmin(actor, id, "update"); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			exists, err := s.repo.User().ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, ErrEmailExists
			}
			user.Email = email
		}
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, err
	}

	// Deactivation kills any live session immediately.
	if req.IsActive != nil && !*req.IsActive {
		if err := s.repo.Session().DeleteByUser(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Failed to drop sessions of deactivated user", "error", err, "user_id", id)
		}
	}

	writeAudit(ctx, s.repo, s.logger, actor, "user_update", map[string]interface{}{"target_user_id": id})

	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string, actor *models.User) error {
	if err := s.requireAdmin(actor, id, "delete"); err != nil {
		return err
	}
	if actor.ID == id {
		return ErrSelfDelete
	}

	if err := s.repo.Session().DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("failed to drop sessions: %w", err)
	}
	if err := s.repo.User().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return err
	}

	writeAudit(ctx, s.repo, s.logger, actor, "user_delete", map[string]interface{}{"target_user_id": id})
	s.logger.InfoContext(ctx, "User deleted", "user_id", id, "actor_id", actor.ID)

	return nil
}

func (s *userService) CountByRole(ctx context.Context, actor *models.User) (RoleCounts, error) {
	if err := s.requireAdmin(actor, "", "count"); err != nil {
		return nil, err
	}
	counts, err := s.repo.User().CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	return RoleCounts(counts), nil
}

func (s *userService) AuditLogs(ctx context.Context, filters repositories.AuditLogFilters, actor *models.User) ([]*models.AuditLog, int64, error) {
	if actor == nil || !rolePermissions[actor.Role][PermViewAuditLogs] {
		return nil, 0, NewPermissionError(actorID(actor), "", "audit", "read", "admin role required")
	}
	logs, total, err := s.repo.AuditLog().List(ctx, filters)
	if err != nil {
		s.logger.WarnContext(ctx, "Audit log read failed", "error", err)
		return []*models.AuditLog{}, 0, nil
	}
	return logs, total, nil
}

func (s *userService) requireAdmin(actor *models.User, resourceID, action string) error {
	if actor == nil || !rolePermissions[actor.Role][PermManageUsers] {
		return NewPermissionError(actorID(actor), resourceID, "user", action, "admin role required")
	}
	return nil
}

func actorID(actor *models.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
