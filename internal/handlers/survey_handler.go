package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
)

type SurveyHandler struct {
	BaseHandler
	surveyService services.SurveyService
}

func NewSurveyHandler(surveyService services.SurveyService, logger utils.Logger) *SurveyHandler {
	return &SurveyHandler{
		BaseHandler:   NewBaseHandler(logger),
		surveyService: surveyService,
	}
}

// CreateSurvey creates a new draft survey.
func (h *SurveyHandler) CreateSurvey(c *gin.Context) {
	var req services.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user := currentUser(c)
	survey, err := h.surveyService.Create(c.Request.Context(), &req, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, survey)
}

// GetSurvey returns one survey with its questions and settings.
func (h *SurveyHandler) GetSurvey(c *gin.Context) {
	survey, err := h.surveyService.GetByID(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

// ListSurveys returns the caller's surveys; admins see every survey.
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	filters := surveyFiltersFromQuery(c)

	result, err := h.surveyService.List(c.Request.Context(), filters, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateSurveyMeta edits title, description and settings.
func (h *SurveyHandler) UpdateSurveyMeta(c *gin.Context) {
	var req services.UpdateSurveyMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	survey, err := h.surveyService.UpdateMeta(c.Request.Context(), c.Param("id"), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

// SaveSurvey persists the whole builder state in one request.
func (h *SurveyHandler) SaveSurvey(c *gin.Context) {
	var req services.SaveSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	survey, err := h.surveyService.Save(c.Request.Context(), c.Param("id"), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

// DeleteSurvey removes a survey and all of its responses.
func (h *SurveyHandler) DeleteSurvey(c *gin.Context) {
	h.LogRequest(c, "Deleting survey", "survey_id", c.Param("id"))

	if err := h.surveyService.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ===== QUESTION MANAGEMENT =====

func (h *SurveyHandler) AddQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.surveyService.AddQuestion(c.Request.Context(), c.Param("id"), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *SurveyHandler) UpdateQuestion(c *gin.Context) {
	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.surveyService.UpdateQuestion(c.Request.Context(), c.Param("id"), c.Param("question_id"), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *SurveyHandler) DeleteQuestion(c *gin.Context) {
	if err := h.surveyService.DeleteQuestion(c.Request.Context(), c.Param("id"), c.Param("question_id"), currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *SurveyHandler) DuplicateQuestion(c *gin.Context) {
	question, err := h.surveyService.DuplicateQuestion(c.Request.Context(), c.Param("id"), c.Param("question_id"), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *SurveyHandler) ReorderQuestions(c *gin.Context) {
	var req services.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.surveyService.ReorderQuestions(c.Request.Context(), c.Param("id"), &req, currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ===== STATUS MANAGEMENT =====

func (h *SurveyHandler) PublishSurvey(c *gin.Context) {
	if err := h.surveyService.Publish(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *SurveyHandler) CloseSurvey(c *gin.Context) {
	if err := h.surveyService.Close(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *SurveyHandler) ReopenSurvey(c *gin.Context) {
	if err := h.surveyService.Reopen(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ===== HELPERS =====

func surveyFiltersFromQuery(c *gin.Context) repositories.SurveyFilters {
	filters := repositories.SurveyFilters{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		s := models.SurveyStatus(status)
		filters.Status = &s
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filters.Offset = offset
	}
	return filters
}
