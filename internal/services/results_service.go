package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

// textPreviewLimit caps collected free-text answers per question; full
// text is available through the response listing and exports.
const textPreviewLimit = 50

type resultsService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewResultsService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ResultsService {
	return &resultsService{repo: repo, logger: logger, validator: v}
}

func (s *resultsService) Summary(ctx context.Context, surveyID string, user *models.User) (*SurveySummary, error) {
	survey, questions, responses, err := s.load(ctx, surveyID, user)
	if err != nil {
		return nil, err
	}

	summary := &SurveySummary{
		SurveyID:      survey.ID,
		Title:         survey.Title,
		ResponseCount: int64(len(responses)),
		Questions:     make([]QuestionSummary, 0, len(questions)),
	}

	var totalCompletion int
	answerSets := make([]models.AnswerSet, 0, len(responses))
	for _, r := range responses {
		answers, err := r.AnswerValues()
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping unreadable response", "error", err, "response_id", r.ID)
			answers = models.AnswerSet{}
		}
		answerSets = append(answerSets, answers)
		totalCompletion += r.CompletionTime
		if summary.LastResponse == nil || r.SubmittedAt.After(*summary.LastResponse) {
			at := r.SubmittedAt
			summary.LastResponse = &at
		}
	}
	if len(responses) > 0 {
		summary.AvgCompletion = float64(totalCompletion) / float64(len(responses))
	}

	for _, q := range questions {
		if q.Type == models.Section {
			continue
		}
		summary.Questions = append(summary.Questions, summarizeQuestion(q, answerSets))
	}

	return summary, nil
}

func (s *resultsService) Responses(ctx context.Context, surveyID string, filters repositories.ResponseFilters, user *models.User) (*ResponseListResult, error) {
	if _, err := s.authorize(ctx, surveyID, user); err != nil {
		return nil, err
	}

	responses, total, err := s.repo.Response().GetBySurvey(ctx, surveyID, filters)
	if err != nil {
		// List reads degrade to an empty collection; writes propagate.
		s.logger.WarnContext(ctx, "Response list read failed", "error", err, "survey_id", surveyID)
		responses, total = nil, 0
	}

	return &ResponseListResult{Responses: responses, Total: total}, nil
}

// ===== EXPORTS =====

func (s *resultsService) ExportCSV(ctx context.Context, surveyID string, user *models.User) ([]byte, error) {
	_, questions, responses, err := s.load(ctx, surveyID, user)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header, grid := exportGrid(questions, responses)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range grid {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *resultsService) ExportXLSX(ctx context.Context, surveyID string, user *models.User) ([]byte, error) {
	survey, questions, responses, err := s.load(ctx, surveyID, user)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Responses"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header, grid := exportGrid(questions, responses)
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	for rowIdx, row := range grid {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, style)
	}

	s.logger.InfoContext(ctx, "Exported responses to xlsx", "survey_id", survey.ID, "rows", len(grid))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func (s *resultsService) authorize(ctx context.Context, surveyID string, user *models.User) (*models.Survey, error) {
	survey, err := s.repo.Survey().GetByID(ctx, surveyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	if user.Role != models.RoleAdmin && survey.CreatorID != user.ID {
		return nil, NewPermissionError(user.ID, surveyID, "results", "read", "not owner")
	}
	return survey, nil
}

func (s *resultsService) load(ctx context.Context, surveyID string, user *models.User) (*models.Survey, []models.Question, []*models.SurveyResponse, error) {
	survey, err := s.authorize(ctx, surveyID, user)
	if err != nil {
		return nil, nil, nil, err
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return nil, nil, nil, err
	}

	responses, _, err := s.repo.Response().GetBySurvey(ctx, surveyID, repositories.ResponseFilters{})
	if err != nil {
		// A failed response read yields an empty summary/export rather
		// than an error page.
		s.logger.WarnContext(ctx, "Response read failed", "error", err, "survey_id", surveyID)
		responses = nil
	}

	return survey, questions, responses, nil
}

func summarizeQuestion(q models.Question, answerSets []models.AnswerSet) QuestionSummary {
	summary := QuestionSummary{
		QuestionID: q.ID,
		Type:       q.Type,
		Title:      q.Title,
	}

	var numSum float64
	var numCount int
	var yesCount int

	for _, answers := range answerSets {
		ans, ok := answers[q.ID]
		if !ok || ans.IsMissing() {
			summary.Skipped++
			continue
		}
		summary.Answered++

		switch q.Type {
		case models.MultipleChoice, models.Dropdown:
			tallyOption(&summary, ans.Text)
		case models.YesNo:
			tallyOption(&summary, ans.Text)
			if strings.EqualFold(ans.Text, "yes") {
				yesCount++
			}
		case models.Checkboxes:
			for _, item := range ans.List {
				tallyOption(&summary, item)
			}
		case models.Rating, models.Scale:
			if summary.OptionCounts == nil {
				summary.OptionCounts = map[string]int{}
			}
			summary.OptionCounts[strconv.FormatFloat(ans.Number, 'f', -1, 64)]++
			if summary.Min == nil || ans.Number < *summary.Min {
				v := ans.Number
				summary.Min = &v
			}
			if summary.Max == nil || ans.Number > *summary.Max {
				v := ans.Number
				summary.Max = &v
			}
			numSum += ans.Number
			numCount++
		case models.Likert:
			if summary.RowCounts == nil {
				summary.RowCounts = map[string]map[string]int{}
			}
			for row, col := range ans.Table {
				if summary.RowCounts[row] == nil {
					summary.RowCounts[row] = map[string]int{}
				}
				summary.RowCounts[row][col]++
			}
		default:
			if len(summary.Texts) < textPreviewLimit {
				summary.Texts = append(summary.Texts, ans.Text)
			}
		}
	}

	if numCount > 0 {
		avg := numSum / float64(numCount)
		summary.Average = &avg
	}
	if q.Type == models.YesNo && summary.Answered > 0 {
		pct := math.Round(float64(yesCount) / float64(summary.Answered) * 100)
		summary.YesPercent = &pct
	}

	return summary
}

// tallyOption counts one choice selection. "Other: ..." entries are
// collapsed under "Other" and their free text collected separately.
func tallyOption(summary *QuestionSummary, value string) {
	if summary.OptionCounts == nil {
		summary.OptionCounts = map[string]int{}
	}
	if text, ok := strings.CutPrefix(value, otherPrefix); ok {
		summary.OptionCounts["Other"]++
		summary.OtherTexts = append(summary.OtherTexts, text)
		return
	}
	summary.OptionCounts[value]++
}

// exportGrid flattens responses into a header row plus one row per
// response, question columns in survey order.
func exportGrid(questions []models.Question, responses []*models.SurveyResponse) ([]string, [][]string) {
	exportable := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if q.Type != models.Section {
			exportable = append(exportable, q)
		}
	}

	header := []string{"Response ID", "Respondent", "Submitted At", "Completion (s)"}
	for _, q := range exportable {
		title := q.Title
		if title == "" {
			title = q.ID
		}
		header = append(header, title)
	}

	grid := make([][]string, 0, len(responses))
	for _, r := range responses {
		answers, err := r.AnswerValues()
		if err != nil {
			answers = models.AnswerSet{}
		}
		row := []string{
			r.ID,
			r.RespondentName,
			r.SubmittedAt.Format(time.RFC3339),
			strconv.Itoa(r.CompletionTime),
		}
		for _, q := range exportable {
			row = append(row, answers[q.ID].String())
		}
		grid = append(grid, row)
	}

	return header, grid
}
