package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
	"github.com/surveybd/survey-service/internal/validator"
)

// BaseHandler carries the cross-cutting pieces every handler needs.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// ErrorResponse is the single error envelope every endpoint returns.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Wait    int         `json:"wait,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// LogRequest logs handler activity with the request-scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, keysAndValues ...interface{}) {
	utils.LoggerFromContext(c.Request.Context(), h.logger).Info(msg, keysAndValues...)
}

// currentUser returns the authenticated user placed by the auth
// middleware, or nil on public routes.
func currentUser(c *gin.Context) *models.User {
	if v, exists := c.Get("user"); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// handleServiceError translates service-layer errors into HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Request validation failed",
			Details: validationErrs,
		})
		return
	}

	if rl, ok := services.IsRateLimitError(err); ok {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "RATE_LIMIT", Wait: rl.Wait})
		return
	}

	var permErr *services.PermissionError
	if errors.As(err, &permErr) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "FORBIDDEN",
			Message: permErr.Reason,
		})
		return
	}

	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "CONFLICT",
			Message: conflictErr.Message,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidSession):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED", Message: err.Error()})

	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "ACCOUNT_DISABLED", Message: err.Error()})

	case errors.Is(err, services.ErrSurveyNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrResponseNotFound),
		repositories.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NOT_FOUND", Message: err.Error()})

	case errors.Is(err, services.ErrEmailExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "EMAIL_EXISTS"})

	case errors.Is(err, services.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_CODE"})

	case errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "EXPIRED"})

	case errors.Is(err, services.ErrEmailNotVerified):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "EMAIL_NOT_VERIFIED", Message: err.Error()})

	case errors.Is(err, services.ErrSurveyNotAcceptingResponses):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "SURVEY_CLOSED", Message: err.Error()})

	case errors.Is(err, services.ErrSelfDelete):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "SELF_DELETE", Message: err.Error()})

	default:
		utils.LoggerFromContext(c.Request.Context(), h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "INTERNAL",
			Message: "An internal error occurred",
		})
	}
}
