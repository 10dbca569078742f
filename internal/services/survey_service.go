package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surveybd/survey-service/internal/events"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

// untitledFallback is applied when a survey is saved without a title.
const untitledFallback = "Untitled Survey"

type surveyService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewSurveyService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) SurveyService {
	return &surveyService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *surveyService) Create(ctx context.Context, req *CreateSurveyRequest, creatorID string) (*SurveyResponse, error) {
	s.logger.InfoContext(ctx, "Creating survey", "creator_id", creatorID, "title", req.Title)

	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	creator, err := s.repo.User().GetByID(ctx, creatorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up creator: %w", err)
	}
	if !rolePermissions[creator.Role][PermCreateSurvey] {
		return nil, NewPermissionError(creatorID, "", "survey", "create", "insufficient role permissions")
	}

	survey := &models.Survey{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(req.Title),
		CreatorID: creatorID,
		Status:    models.StatusDraft,
	}
	if req.Description != nil {
		survey.Description = *req.Description
	}
	if req.DescriptionTh != nil {
		survey.DescriptionTh = *req.DescriptionTh
	}

	settings := models.DefaultSurveySettings()
	applySettings(&settings, req.Settings)
	if err := survey.SetSettingsValue(settings); err != nil {
		return nil, err
	}
	if err := survey.SetQuestionList(nil); err != nil {
		return nil, err
	}

	if err := s.repo.Survey().Upsert(ctx, survey); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Survey created", "survey_id", survey.ID)

	return s.buildSurveyResponse(ctx, survey, creator)
}

func (s *surveyService) GetByID(ctx context.Context, id string, user *models.User) (*SurveyResponse, error) {
	survey, err := s.getOwned(ctx, id, user, "read")
	if err != nil {
		return nil, err
	}
	return s.buildSurveyResponse(ctx, survey, user)
}

func (s *surveyService) List(ctx context.Context, filters repositories.SurveyFilters, user *models.User) (*SurveyListResponse, error) {
	// Creators only see their own surveys; admins see everything.
	if user.Role != models.RoleAdmin {
		filters.CreatorID = &user.ID
	}

	surveys, total, err := s.repo.Survey().List(ctx, filters)
	if err != nil {
		// List reads degrade to an empty collection; writes propagate.
		s.logger.WarnContext(ctx, "Survey list read failed", "error", err)
		surveys, total = nil, 0
	}

	out := make([]*SurveyResponse, 0, len(surveys))
	for _, survey := range surveys {
		resp, err := s.buildSurveyResponse(ctx, survey, user)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}

	page, size := pageOf(filters.Limit, filters.Offset)
	return &SurveyListResponse{Surveys: out, Total: total, Page: page, Size: size}, nil
}

func (s *surveyService) UpdateMeta(ctx context.Context, id string, req *UpdateSurveyMetaRequest, user *models.User) (*SurveyResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	survey, err := s.getOwned(ctx, id, user, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		survey.Title = strings.TrimSpace(*req.Title)
	}
	if req.TitleTh != nil {
		survey.TitleTh = strings.TrimSpace(*req.TitleTh)
	}
	if req.Description != nil {
		survey.Description = *req.Description
	}
	if req.DescriptionTh != nil {
		survey.DescriptionTh = *req.DescriptionTh
	}
	if req.Settings != nil {
		settings, err := survey.SettingsValue()
		if err != nil {
			return nil, err
		}
		applySettings(&settings, req.Settings)
		if err := survey.SetSettingsValue(settings); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Survey().Upsert(ctx, survey); err != nil {
		return nil, err
	}

	return s.buildSurveyResponse(ctx, survey, user)
}

// Save persists the whole builder state in one call. An empty title gets
// the untitled fallback, matching what the editor shows.
func (s *surveyService) Save(ctx context.Context, id string, req *SaveSurveyRequest, user *models.User) (*SurveyResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	survey, err := s.getOwned(ctx, id, user, "update")
	if err != nil {
		return nil, err
	}

	var allErrs validator.ValidationErrors
	for i := range req.Questions {
		q := &req.Questions[i]
		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		for _, e := range s.validator.GetBusinessValidator().ValidateQuestion(q) {
			e.Field = fmt.Sprintf("questions[%d].%s", i, e.Field)
			allErrs = append(allErrs, e)
		}
	}
	if len(allErrs) > 0 {
		return nil, allErrs
	}

	survey.Title = strings.TrimSpace(req.Title)
	if survey.Title == "" {
		survey.Title = untitledFallback
	}
	survey.TitleTh = strings.TrimSpace(req.TitleTh)
	if req.Description != nil {
		survey.Description = *req.Description
	}
	if req.DescriptionTh != nil {
		survey.DescriptionTh = *req.DescriptionTh
	}
	if err := survey.SetQuestionList(req.Questions); err != nil {
		return nil, err
	}
	if req.Settings != nil {
		settings, err := survey.SettingsValue()
		if err != nil {
			return nil, err
		}
		applySettings(&settings, req.Settings)
		if err := survey.SetSettingsValue(settings); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Survey().Upsert(ctx, survey); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Survey saved", "survey_id", id, "questions", len(req.Questions))

	return s.buildSurveyResponse(ctx, survey, user)
}

func (s *surveyService) Delete(ctx context.Context, id string, user *models.User) error {
	s.logger.InfoContext(ctx, "Deleting survey", "survey_id", id, "user_id", user.ID)

	survey, err := s.getOwned(ctx, id, user, "delete")
	if err != nil {
		return err
	}

	if err := s.repo.Survey().Delete(ctx, id); err != nil {
		return err
	}

	writeAudit(ctx, s.repo, s.logger, user, "survey_delete", map[string]interface{}{"survey_id": id, "title": survey.Title})

	if err := s.publisher.Publish(ctx, events.SurveyDeleted, events.SurveyEvent{
		SurveyID:  id,
		CreatorID: survey.CreatorID,
		Title:     survey.Title,
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish delete event", "error", err, "survey_id", id)
	}

	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *surveyService) AddQuestion(ctx context.Context, surveyID string, req *CreateQuestionRequest, user *models.User) (*models.Question, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	survey, err := s.getOwned(ctx, surveyID, user, "update")
	if err != nil {
		return nil, err
	}

	question := models.Question{
		ID:            uuid.New().String(),
		Type:          req.Type,
		Title:         req.Title,
		TitleTh:       req.TitleTh,
		Description:   req.Description,
		DescriptionTh: req.DescriptionTh,
		Required:      req.Required,
		Content:       req.Content,
	}
	if len(question.Content) == 0 {
		if err := applyDefaultContent(&question); err != nil {
			return nil, err
		}
	}

	if errs := s.validator.GetBusinessValidator().ValidateQuestion(&question); len(errs) > 0 {
		return nil, errs
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return nil, err
	}
	questions = insertAfter(questions, question, req.AfterID)

	if err := s.saveQuestions(ctx, survey, questions); err != nil {
		return nil, err
	}

	return &question, nil
}

func (s *surveyService) UpdateQuestion(ctx context.Context, surveyID, questionID string, req *UpdateQuestionRequest, user *models.User) (*models.Question, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	survey, err := s.getOwned(ctx, surveyID, user, "update")
	if err != nil {
		return nil, err
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return nil, err
	}

	idx := indexOf(questions, questionID)
	if idx < 0 {
		return nil, repositories.NewNotFoundError("question", questionID)
	}

	q := &questions[idx]
	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.TitleTh != nil {
		q.TitleTh = *req.TitleTh
	}
	if req.Description != nil {
		q.Description = req.Description
	}
	if req.DescriptionTh != nil {
		q.DescriptionTh = req.DescriptionTh
	}
	if req.Required != nil {
		q.Required = *req.Required
	}
	if req.Content != nil {
		q.Content = req.Content
	}

	if errs := s.validator.GetBusinessValidator().ValidateQuestion(q); len(errs) > 0 {
		return nil, errs
	}

	if err := s.saveQuestions(ctx, survey, questions); err != nil {
		return nil, err
	}

	updated := questions[idx]
	return &updated, nil
}

func (s *surveyService) DeleteQuestion(ctx context.Context, surveyID, questionID string, user *models.User) error {
	survey, err := s.getOwned(ctx, surveyID, user, "update")
	if err != nil {
		return err
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return err
	}

	idx := indexOf(questions, questionID)
	if idx < 0 {
		return repositories.NewNotFoundError("question", questionID)
	}

	questions = append(questions[:idx], questions[idx+1:]...)
	return s.saveQuestions(ctx, survey, questions)
}

// DuplicateQuestion deep-copies a question and places the copy directly
// after the original.
func (s *surveyService) DuplicateQuestion(ctx context.Context, surveyID, questionID string, user *models.User) (*models.Question, error) {
	survey, err := s.getOwned(ctx, surveyID, user, "update")
	if err != nil {
		return nil, err
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return nil, err
	}

	idx := indexOf(questions, questionID)
	if idx < 0 {
		return nil, repositories.NewNotFoundError("question", questionID)
	}

	copied := questions[idx].Clone()
	copied.ID = uuid.New().String()

	questions = insertAfter(questions, copied, questionID)

	if err := s.saveQuestions(ctx, survey, questions); err != nil {
		return nil, err
	}

	return &copied, nil
}

// ReorderQuestions applies a new ordering. The ID list must be a
// permutation of the current questions.
func (s *surveyService) ReorderQuestions(ctx context.Context, surveyID string, req *ReorderRequest, user *models.User) error {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return errs
	}

	survey, err := s.getOwned(ctx, surveyID, user, "update")
	if err != nil {
		return err
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return err
	}

	if len(req.QuestionIDs) != len(questions) {
		return validator.ValidationErrors{{
			Field:   "question_ids",
			Message: "must contain every question exactly once",
			Value:   len(req.QuestionIDs),
			Rule:    "business_logic",
		}}
	}

	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	reordered := make([]models.Question, 0, len(questions))
	for _, id := range req.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			return validator.ValidationErrors{{
				Field:   "question_ids",
				Message: fmt.Sprintf("unknown question id %s", id),
				Value:   id,
				Rule:    "business_logic",
			}}
		}
		delete(byID, id)
		reordered = append(reordered, q)
	}

	return s.saveQuestions(ctx, survey, reordered)
}

// ===== STATUS MANAGEMENT =====

func (s *surveyService) Publish(ctx context.Context, id string, user *models.User) error {
	survey, err := s.getOwned(ctx, id, user, "publish")
	if err != nil {
		return err
	}

	if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(survey.Status, models.StatusPublished); len(errs) > 0 {
		return errs
	}
	if errs := s.validator.GetBusinessValidator().ValidatePublish(survey); len(errs) > 0 {
		return errs
	}

	now := time.Now()
	survey.Status = models.StatusPublished
	survey.PublishedAt = &now

	if err := s.repo.Survey().Upsert(ctx, survey); err != nil {
		return err
	}

	writeAudit(ctx, s.repo, s.logger, user, "survey_publish", map[string]interface{}{"survey_id": id})
	s.publishSurveyEvent(ctx, events.SurveyPublished, survey)

	s.logger.InfoContext(ctx, "Survey published", "survey_id", id)
	return nil
}

func (s *surveyService) Close(ctx context.Context, id string, user *models.User) error {
	survey, err := s.getOwned(ctx, id, user, "close")
	if err != nil {
		return err
	}

	if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(survey.Status, models.StatusClosed); len(errs) > 0 {
		return errs
	}

	survey.Status = models.StatusClosed
	if err := s.repo.Survey().Upsert(ctx, survey); err != nil {
		return err
	}

	writeAudit(ctx, s.repo, s.logger, user, "survey_close", map[string]interface{}{"survey_id": id})
	s.publishSurveyEvent(ctx, events.SurveyClosed, survey)

	return nil
}

// Reopen puts a closed survey back to published. PublishedAt keeps its
// original value.
func (s *surveyService) Reopen(ctx context.Context, id string, user *models.User) error {
	survey, err := s.getOwned(ctx, id, user, "reopen")
	if err != nil {
		return err
	}

	if survey.Status != models.StatusClosed {
		return NewConflictError("survey", fmt.Sprintf("cannot reopen survey in status %s", survey.Status))
	}

	survey.Status = models.StatusPublished
	if err := s.repo.Survey().Upsert(ctx, survey); err != nil {
		return err
	}

	writeAudit(ctx, s.repo, s.logger, user, "survey_reopen", map[string]interface{}{"survey_id": id})
	s.publishSurveyEvent(ctx, events.SurveyReopened, survey)

	return nil
}

// ===== HELPERS =====

// getOwned fetches a survey and checks the caller may manage it. Owners
// and admins pass; everyone else gets a permission error.
func (s *surveyService) getOwned(ctx context.Context, id string, user *models.User, action string) (*models.Survey, error) {
	survey, err := s.repo.Survey().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}

	if user.Role != models.RoleAdmin && survey.CreatorID != user.ID {
		return nil, NewPermissionError(user.ID, id, "survey", action, "not owner")
	}

	return survey, nil
}

func (s *surveyService) saveQuestions(ctx context.Context, survey *models.Survey, questions []models.Question) error {
	if err := survey.SetQuestionList(questions); err != nil {
		return err
	}
	return s.repo.Survey().Upsert(ctx, survey)
}

func (s *surveyService) buildSurveyResponse(ctx context.Context, survey *models.Survey, user *models.User) (*SurveyResponse, error) {
	questions, err := survey.QuestionList()
	if err != nil {
		return nil, err
	}
	settings, err := survey.SettingsValue()
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Response().CountBySurvey(ctx, survey.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to count responses", "error", err, "survey_id", survey.ID)
		count = 0
	}

	manage := user != nil && (user.Role == models.RoleAdmin || survey.CreatorID == user.ID)
	return &SurveyResponse{
		Survey:        survey,
		Questions:     questions,
		Settings:      settings,
		ResponseCount: count,
		CanEdit:       manage,
		CanDelete:     manage,
	}, nil
}

func (s *surveyService) publishSurveyEvent(ctx context.Context, eventType string, survey *models.Survey) {
	questions, _ := survey.QuestionList()
	if err := s.publisher.Publish(ctx, eventType, events.SurveyEvent{
		SurveyID:      survey.ID,
		CreatorID:     survey.CreatorID,
		Title:         survey.Title,
		QuestionCount: len(questions),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish survey event", "error", err, "event_type", eventType, "survey_id", survey.ID)
	}
}

func applySettings(settings *models.SurveySettings, req *SurveySettingsRequest) {
	if req == nil {
		return
	}
	if req.AllowMultiple != nil {
		settings.AllowMultiple = *req.AllowMultiple
	}
	if req.ShowProgress != nil {
		settings.ShowProgress = *req.ShowProgress
	}
	if req.Anonymous != nil {
		settings.Anonymous = *req.Anonymous
	}
}

// applyDefaultContent seeds the content the editor starts a new question
// with.
func applyDefaultContent(q *models.Question) error {
	switch {
	case models.IsChoiceType(q.Type):
		return q.SetContent(models.ChoiceContent{
			Options:   []string{"Option 1", "Option 2", "Option 3"},
			OptionsTh: []string{"ตัวเลือก 1", "ตัวเลือก 2", "ตัวเลือก 3"},
		})
	case q.Type == models.Scale:
		return q.SetContent(models.ScaleContent{
			MinValue: 1,
			MaxValue: 10,
			MinLabel: "Low",
			MaxLabel: "High",
		})
	case q.Type == models.Likert:
		return q.SetContent(models.LikertContent{
			Rows:    []string{"Statement 1", "Statement 2"},
			RowsTh:  []string{"ข้อความ 1", "ข้อความ 2"},
			Scale:   []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"},
			ScaleTh: []string{"ไม่เห็นด้วยอย่างยิ่ง", "ไม่เห็นด้วย", "เฉยๆ", "เห็นด้วย", "เห็นด้วยอย่างยิ่ง"},
		})
	}
	return nil
}

func insertAfter(questions []models.Question, q models.Question, afterID string) []models.Question {
	if afterID == "" {
		return append(questions, q)
	}
	idx := indexOf(questions, afterID)
	if idx < 0 {
		return append(questions, q)
	}
	out := make([]models.Question, 0, len(questions)+1)
	out = append(out, questions[:idx+1]...)
	out = append(out, q)
	out = append(out, questions[idx+1:]...)
	return out
}

func indexOf(questions []models.Question, id string) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
