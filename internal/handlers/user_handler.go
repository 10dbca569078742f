package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
	"github.com/surveybd/survey-service/internal/validator"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// CreateUser provisions a new account. Admin only.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req validator.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "user created", "created_user_id", user.ID)
	c.JSON(http.StatusCreated, user)
}

// GetUser returns a single account. Self or admin.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers returns accounts matching the query filters.
func (h *UserHandler) ListUsers(c *gin.Context) {
	filters := userFiltersFromQuery(c)
	result, err := h.userService.List(c.Request.Context(), filters, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateUser applies partial updates to an account.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req validator.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account and its sessions.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "user deleted", "deleted_user_id", c.Param("id"))
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// GetRoleCounts returns the number of accounts per role.
func (h *UserHandler) GetRoleCounts(c *gin.Context) {
	counts, err := h.userService.CountByRole(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ListAuditLogs returns the audit trail, newest first.
func (h *UserHandler) ListAuditLogs(c *gin.Context) {
	filters := repositories.AuditLogFilters{}
	if userID := c.Query("user_id"); userID != "" {
		filters.UserID = &userID
	}
	if action := c.Query("action"); action != "" {
		filters.Action = &action
	}
	filters.Limit, filters.Offset = pagingFromQuery(c)

	logs, total, err := h.userService.AuditLogs(c.Request.Context(), filters, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
	})
}

func userFiltersFromQuery(c *gin.Context) repositories.UserFilters {
	filters := repositories.UserFilters{}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filters.Role = &r
	}
	if active := c.Query("is_active"); active != "" {
		if v, err := strconv.ParseBool(active); err == nil {
			filters.IsActive = &v
		}
	}
	if query := c.Query("q"); query != "" {
		filters.Query = &query
	}
	filters.Limit, filters.Offset = pagingFromQuery(c)
	return filters
}

func pagingFromQuery(c *gin.Context) (limit, offset int) {
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
