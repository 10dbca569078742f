package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
)

type ResultsHandler struct {
	BaseHandler
	resultsService services.ResultsService
}

func NewResultsHandler(resultsService services.ResultsService, logger utils.Logger) *ResultsHandler {
	return &ResultsHandler{
		BaseHandler:    NewBaseHandler(logger),
		resultsService: resultsService,
	}
}

// GetSummary returns per-question aggregates for a survey.
func (h *ResultsHandler) GetSummary(c *gin.Context) {
	summary, err := h.resultsService.Summary(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListResponses returns raw responses for a survey.
func (h *ResultsHandler) ListResponses(c *gin.Context) {
	filters := repositories.ResponseFilters{}
	if respondentID := c.Query("respondent_id"); respondentID != "" {
		filters.RespondentID = &respondentID
	}
	if from, err := time.Parse(time.RFC3339, c.Query("date_from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("date_to")); err == nil {
		filters.DateTo = &to
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filters.Offset = offset
	}

	result, err := h.resultsService.Responses(c.Request.Context(), c.Param("id"), filters, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportCSV streams responses as a CSV download.
func (h *ResultsHandler) ExportCSV(c *gin.Context) {
	data, err := h.resultsService.ExportCSV(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := exportFilename(c.Param("id"), "csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ExportXLSX streams responses as an Excel workbook.
func (h *ResultsHandler) ExportXLSX(c *gin.Context) {
	data, err := h.resultsService.ExportXLSX(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := exportFilename(c.Param("id"), "xlsx")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func exportFilename(surveyID, ext string) string {
	return fmt.Sprintf("survey-%s-%s.%s", surveyID, time.Now().Format("20060102"), ext)
}
