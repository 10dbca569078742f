package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
)

// ResponseHandler serves the respondent-facing collection flow.
type ResponseHandler struct {
	BaseHandler
	responseService services.ResponseService
}

func NewResponseHandler(responseService services.ResponseService, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:     NewBaseHandler(logger),
		responseService: responseService,
	}
}

// GetPublicForm returns a published survey's form. Anonymous access.
func (h *ResponseHandler) GetPublicForm(c *gin.Context) {
	form, err := h.responseService.PublishedForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// SubmitResponse accepts a filled-out response for a published survey.
func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.responseService.Submit(c.Request.Context(), c.Param("id"), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// HasResponded tells the client whether the logged-in user already
// answered this survey.
func (h *ResponseHandler) HasResponded(c *gin.Context) {
	responded, err := h.responseService.HasResponded(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_responded": responded})
}

// ===== DRAFT AUTOSAVE =====

func (h *ResponseHandler) SaveDraft(c *gin.Context) {
	var req services.DraftSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.responseService.SaveDraft(c.Request.Context(), c.Param("id"), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *ResponseHandler) GetDraft(c *gin.Context) {
	clientKey := c.Query("client_key")
	if clientKey == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "client_key is required",
		})
		return
	}

	answers, err := h.responseService.GetDraft(c.Request.Context(), c.Param("id"), clientKey)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

func (h *ResponseHandler) DiscardDraft(c *gin.Context) {
	clientKey := c.Query("client_key")
	if clientKey == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "VALIDATION",
			Message: "client_key is required",
		})
		return
	}

	if err := h.responseService.DiscardDraft(c.Request.Context(), c.Param("id"), clientKey); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
