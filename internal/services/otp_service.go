package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/surveybd/survey-service/internal/email"
	"github.com/surveybd/survey-service/internal/events"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

const (
	otpTTL            = 10 * time.Minute
	otpResendCooldown = 60 * time.Second
)

type otpService struct {
	repo       repositories.Repository
	logger     *slog.Logger
	validator  *validator.Validator
	sender     email.Sender
	fromAddr   string
	publisher  events.EventPublisher
	sessionTTL time.Duration
}

func NewOTPService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, sender email.Sender, fromAddr string, publisher events.EventPublisher, sessionTTL time.Duration) OTPService {
	if sessionTTL <= 0 {
		sessionTTL = 168 * time.Hour
	}
	return &otpService{
		repo:       repo,
		logger:     logger,
		validator:  v,
		sender:     sender,
		fromAddr:   fromAddr,
		publisher:  publisher,
		sessionTTL: sessionTTL,
	}
}

func (s *otpService) SendCode(ctx context.Context, req *SendCodeRequest) error {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return errs
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.User().ExistsByEmail(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrEmailExists
	}

	// One code per address per cooldown window.
	if recent, err := s.repo.OTP().LatestUnused(ctx, addr); err == nil {
		if time.Since(recent.CreatedAt) < otpResendCooldown {
			return &RateLimitError{Wait: int(otpResendCooldown.Seconds())}
		}
	} else if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to check recent codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	record := &models.OTPCode{
		ID:        uuid.New().String(),
		Email:     addr,
		Code:      code,
		ExpiresAt: time.Now().Add(otpTTL),
		CreatedAt: time.Now(),
	}
	if err := s.repo.OTP().Create(ctx, record); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	msg := email.Message{
		From:    s.fromAddr,
		To:      addr,
		Subject: email.VerificationCodeSubject,
		HTML:    email.VerificationCodeHTML(code),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	s.logger.InfoContext(ctx, "Verification code sent", "email", addr)
	return nil
}

func (s *otpService) VerifyCode(ctx context.Context, req *VerifyCodeRequest) error {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return errs
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))

	code, err := s.repo.OTP().LatestUnusedMatch(ctx, addr, req.Code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to look up code: %w", err)
	}

	if time.Now().After(code.ExpiresAt) {
		return ErrCodeExpired
	}

	if err := s.repo.OTP().MarkUsed(ctx, code.ID); err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}

	return nil
}

func (s *otpService) CompleteRegistration(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))

	// Registration only completes for an address verified within the
	// code's validity window.
	if _, err := s.repo.OTP().LatestUsedValid(ctx, addr, time.Now()); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEmailNotVerified
		}
		return nil, fmt.Errorf("failed to check verification: %w", err)
	}

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
		Role:         models.RoleCreator,
		IsActive:     true,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
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

	writeAudit(ctx, s.repo, s.logger, user, "register", nil)

	if err := s.publisher.Publish(ctx, events.UserRegistered, events.UserEvent{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish registration event", "error", err, "user_id", user.ID)
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID)

	return &AuthResult{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *otpService) CleanupExpiredCodes(ctx context.Context) (int64, error) {
	return s.repo.OTP().DeleteExpired(ctx, time.Now())
}

// generateCode produces a uniform 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
