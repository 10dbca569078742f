package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
	"github.com/surveybd/survey-service/internal/validator"
)

type stubOTPService struct {
	sendErr   error
	verifyErr error
}

func (s *stubOTPService) SendCode(ctx context.Context, req *services.SendCodeRequest) error {
	return s.sendErr
}

func (s *stubOTPService) VerifyCode(ctx context.Context, req *services.VerifyCodeRequest) error {
	return s.verifyErr
}

func (s *stubOTPService) CompleteRegistration(ctx context.Context, req *services.RegisterRequest) (*services.AuthResult, error) {
	return nil, nil
}

func (s *stubOTPService) CleanupExpiredCodes(ctx context.Context) (int64, error) {
	return 0, nil
}

func newRegistrationRouter(otp *stubOTPService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := NewRegistrationHandler(otp, logger)

	router := gin.New()
	router.POST("/api/auth/send-otp", handler.SendOTP)
	router.POST("/api/auth/verify-otp", handler.VerifyOTP)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRegistrationHandler_SendOTP(t *testing.T) {
	t.Run("malformed payload reports invalid email", func(t *testing.T) {
		router := newRegistrationRouter(&stubOTPService{})

		rec := postJSON(t, router, "/api/auth/send-otp", `{"email":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["error"] != "Invalid email" {
			t.Errorf("Expected Invalid email error, got %v", body)
		}
	})

	t.Run("validation failure reports invalid email", func(t *testing.T) {
		router := newRegistrationRouter(&stubOTPService{
			sendErr: validator.ValidationErrors{{Field: "email", Message: "must be a valid email address", Rule: "email"}},
		})

		rec := postJSON(t, router, "/api/auth/send-otp", `{"email":"not-an-email"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["error"] != "Invalid email" {
			t.Errorf("Expected Invalid email error, got %v", body)
		}
	})

	t.Run("accepted send reports success", func(t *testing.T) {
		router := newRegistrationRouter(&stubOTPService{})

		rec := postJSON(t, router, "/api/auth/send-otp", `{"email":"new@example.com"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["success"] != true {
			t.Errorf("Expected success true, got %v", body)
		}
	})
}

func TestRegistrationHandler_VerifyOTP(t *testing.T) {
	t.Run("expired code", func(t *testing.T) {
		router := newRegistrationRouter(&stubOTPService{verifyErr: services.ErrCodeExpired})

		rec := postJSON(t, router, "/api/auth/verify-otp", `{"email":"new@example.com","code":"123456"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["valid"] != false || body["error"] != "EXPIRED" {
			t.Errorf("Expected valid=false error=EXPIRED, got %v", body)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		router := newRegistrationRouter(&stubOTPService{verifyErr: services.ErrInvalidCode})

		rec := postJSON(t, router, "/api/auth/verify-otp", `{"email":"new@example.com","code":"000000"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["valid"] != false || body["error"] != "INVALID_CODE" {
			t.Errorf("Expected valid=false error=INVALID_CODE, got %v", body)
		}
	})

	t.Run("malformed payload reads as an invalid code", func(t *testing.T) {
		router := newRegistrationRouter(&stubOTPService{})

		rec := postJSON(t, router, "/api/auth/verify-otp", `{"code":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["valid"] != false || body["error"] != "INVALID_CODE" {
			t.Errorf("Expected valid=false error=INVALID_CODE, got %v", body)
		}
	})

	t.Run("matching code", func(t *testing.T) {
		router := newRegistrationRouter(&stubOTPService{})

		rec := postJSON(t, router, "/api/auth/verify-otp", `{"email":"new@example.com","code":"123456"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["valid"] != true {
			t.Errorf("Expected valid true, got %v", body)
		}
	})
}
