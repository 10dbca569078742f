package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
	"github.com/surveybd/survey-service/internal/validator"
)

// RegistrationHandler serves the email-verification signup flow.
type RegistrationHandler struct {
	BaseHandler
	otpService services.OTPService
}

func NewRegistrationHandler(otpService services.OTPService, logger utils.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		BaseHandler: NewBaseHandler(logger),
		otpService:  otpService,
	}
}

// SendOTP emails a 6-digit verification code to an unregistered address.
func (h *RegistrationHandler) SendOTP(c *gin.Context) {
	var req services.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}

	if err := h.otpService.SendCode(c.Request.Context(), &req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// VerifyOTP checks the emailed code and consumes it on a match.
func (h *RegistrationHandler) VerifyOTP(c *gin.Context) {
	var req services.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "INVALID_CODE"})
		return
	}

	if err := h.otpService.VerifyCode(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "EXPIRED"})
		case errors.Is(err, services.ErrInvalidCode), isValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "INVALID_CODE"})
		default:
			h.handleServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func isValidationError(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}

// Register completes signup for a verified address and starts a session.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.otpService.CompleteRegistration(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
