package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/surveybd/survey-service/internal/email"
	"github.com/surveybd/survey-service/internal/events"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/validator"
)

func newOTPFixture(t *testing.T) (*mockRepository, *email.MockSender, *events.MockEventPublisher, OTPService) {
	t.Helper()

	repo := newMockRepository()
	logger := testLogger()
	sender := &email.MockSender{}
	publisher := events.NewMockEventPublisher(logger)
	service := NewOTPService(repo, logger, validator.New(), sender, "Survey BD <noreply@surveybd.app>", publisher, time.Hour)
	return repo, sender, publisher, service
}

func seedCode(t *testing.T, repo *mockRepository, addr, code string, createdAt time.Time, used bool) *models.OTPCode {
	t.Helper()

	record := &models.OTPCode{
		ID:        uuid.New().String(),
		Email:     addr,
		Code:      code,
		ExpiresAt: createdAt.Add(10 * time.Minute),
		Used:      used,
		CreatedAt: createdAt,
	}
	if err := repo.OTP().Create(context.Background(), record); err != nil {
		t.Fatalf("Failed to seed code: %v", err)
	}
	return record
}

func TestOTPService_SendCode(t *testing.T) {
	ctx := context.Background()

	t.Run("sends a six digit code", func(t *testing.T) {
		repo, sender, _, service := newOTPFixture(t)

		if err := service.SendCode(ctx, &SendCodeRequest{Email: "new@example.com"}); err != nil {
			t.Fatalf("SendCode failed: %v", err)
		}

		if len(sender.Sent) != 1 {
			t.Fatalf("Expected 1 email, got %d", len(sender.Sent))
		}
		msg := sender.Sent[0]
		if msg.To != "new@example.com" {
			t.Errorf("Expected recipient new@example.com, got %s", msg.To)
		}
		if msg.Subject != email.VerificationCodeSubject {
			t.Errorf("Unexpected subject %q", msg.Subject)
		}

		stored, err := repo.OTP().LatestUnused(ctx, "new@example.com")
		if err != nil {
			t.Fatalf("Expected stored code: %v", err)
		}
		if len(stored.Code) != 6 {
			t.Errorf("Expected 6-digit code, got %q", stored.Code)
		}
		if !strings.Contains(msg.HTML, stored.Code) {
			t.Error("Expected email body to contain the code")
		}
	})

	t.Run("registered email is rejected", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		seedUser(t, repo, models.RoleRespondent, "taken@example.com", "secret-password")

		err := service.SendCode(ctx, &SendCodeRequest{Email: "taken@example.com"})
		if !errors.Is(err, ErrEmailExists) {
			t.Errorf("Expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("resend inside cooldown is rate limited", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "123456", time.Now().Add(-10*time.Second), false)

		err := service.SendCode(ctx, &SendCodeRequest{Email: "new@example.com"})
		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			t.Fatalf("Expected RateLimitError, got %v", err)
		}
		if rateErr.Wait != 60 {
			t.Errorf("Expected 60s wait, got %d", rateErr.Wait)
		}
	})

	t.Run("resend after cooldown succeeds", func(t *testing.T) {
		repo, sender, _, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "123456", time.Now().Add(-2*time.Minute), false)

		if err := service.SendCode(ctx, &SendCodeRequest{Email: "new@example.com"}); err != nil {
			t.Fatalf("SendCode failed: %v", err)
		}
		if len(sender.Sent) != 1 {
			t.Errorf("Expected 1 email, got %d", len(sender.Sent))
		}
	})
}

func TestOTPService_VerifyCode(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code is consumed", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		record := seedCode(t, repo, "new@example.com", "654321", time.Now(), false)

		if err := service.VerifyCode(ctx, &VerifyCodeRequest{Email: "new@example.com", Code: "654321"}); err != nil {
			t.Fatalf("VerifyCode failed: %v", err)
		}

		// Single use: the same code fails the second time.
		err := service.VerifyCode(ctx, &VerifyCodeRequest{Email: "new@example.com", Code: "654321"})
		if !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Expected ErrInvalidCode on reuse, got %v", err)
		}

		used, err := repo.OTP().LatestUsedValid(ctx, "new@example.com", time.Now())
		if err != nil {
			t.Fatalf("Expected a used valid code: %v", err)
		}
		if used.ID != record.ID {
			t.Errorf("Expected code %s marked used, got %s", record.ID, used.ID)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "654321", time.Now(), false)

		err := service.VerifyCode(ctx, &VerifyCodeRequest{Email: "new@example.com", Code: "111111"})
		if !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Expected ErrInvalidCode, got %v", err)
		}
	})

	t.Run("expired code", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "654321", time.Now().Add(-time.Hour), false)

		err := service.VerifyCode(ctx, &VerifyCodeRequest{Email: "new@example.com", Code: "654321"})
		if !errors.Is(err, ErrCodeExpired) {
			t.Errorf("Expected ErrCodeExpired, got %v", err)
		}
	})
}

func TestOTPService_CompleteRegistration(t *testing.T) {
	ctx := context.Background()

	register := &RegisterRequest{
		Email:           "new@example.com",
		Name:            "New User",
		Password:        "long-enough-password",
		ConfirmPassword: "long-enough-password",
	}

	t.Run("verified email registers with session", func(t *testing.T) {
		repo, _, publisher, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "654321", time.Now(), true)

		result, err := service.CompleteRegistration(ctx, register)
		if err != nil {
			t.Fatalf("CompleteRegistration failed: %v", err)
		}
		if result.User.Role != models.RoleCreator {
			t.Errorf("Expected creator role, got %s", result.User.Role)
		}
		if result.Token == "" {
			t.Error("Expected an auto-login session token")
		}

		if _, err := repo.Session().GetByToken(ctx, result.Token); err != nil {
			t.Errorf("Expected stored session: %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.UserRegistered {
			t.Errorf("Expected one %s event, got %v", events.UserRegistered, published)
		}
	})

	t.Run("mismatched confirmation is rejected", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "654321", time.Now(), true)

		bad := *register
		bad.ConfirmPassword = "different-password"
		if _, err := service.CompleteRegistration(ctx, &bad); err == nil {
			t.Error("Expected mismatched passwords rejected")
		}
		if _, err := repo.User().GetByEmail(ctx, "new@example.com"); err == nil {
			t.Error("Expected no user created")
		}
	})

	t.Run("unverified email is rejected", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "654321", time.Now(), false)

		_, err := service.CompleteRegistration(ctx, register)
		if !errors.Is(err, ErrEmailNotVerified) {
			t.Errorf("Expected ErrEmailNotVerified, got %v", err)
		}

		if _, err := repo.User().GetByEmail(ctx, "new@example.com"); err == nil {
			t.Error("Expected no user created")
		}
	})

	t.Run("already registered email is rejected", func(t *testing.T) {
		repo, _, _, service := newOTPFixture(t)
		seedCode(t, repo, "new@example.com", "654321", time.Now(), true)
		seedUser(t, repo, models.RoleRespondent, "new@example.com", "secret-password")

		_, err := service.CompleteRegistration(ctx, register)
		if !errors.Is(err, ErrEmailExists) {
			t.Errorf("Expected ErrEmailExists, got %v", err)
		}
	})
}

func TestOTPService_CleanupExpiredCodes(t *testing.T) {
	ctx := context.Background()
	repo, _, _, service := newOTPFixture(t)

	seedCode(t, repo, "a@example.com", "111111", time.Now().Add(-time.Hour), false)
	seedCode(t, repo, "b@example.com", "222222", time.Now(), false)

	removed, err := service.CleanupExpiredCodes(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 code removed, got %d", removed)
	}
}
