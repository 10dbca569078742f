package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/surveybd/survey-service/internal/models"
)

// BusinessValidator handles business rule validation on top of the
// struct-tag rules.
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct-tag rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateQuestionCreate validates a new question including its typed content.
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	q := models.Question{Type: req.Type, Content: req.Content}
	errors = append(errors, bv.validateQuestionContent(&q)...)

	return errors
}

// ValidateQuestion validates a fully-formed question, used when the
// builder saves a whole question list at once.
func (bv *BusinessValidator) ValidateQuestion(q *models.Question) ValidationErrors {
	var errors ValidationErrors

	if !models.IsValidQuestionType(q.Type) {
		errors = append(errors, ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown question type %q", q.Type),
			Value:   q.Type,
			Rule:    "question_type",
		})
		return errors
	}

	errors = append(errors, bv.validateQuestionContent(q)...)
	return errors
}

// ValidatePublish validates that a survey is fit to go live.
func (bv *BusinessValidator) ValidatePublish(survey *models.Survey) ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(survey.Title) == "" {
		errors = append(errors, ValidationError{
			Field:   "title",
			Message: "survey must have a title before publishing",
			Rule:    "business_logic",
		})
	}

	questions, err := survey.QuestionList()
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "stored question list is unreadable",
			Rule:    "business_logic",
		})
		return errors
	}

	answerable := 0
	for _, q := range questions {
		if q.Type != models.Section {
			answerable++
		}
	}
	if answerable == 0 {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "survey must have at least one answerable question before publishing",
			Value:   len(questions),
			Rule:    "business_logic",
		})
	}

	for _, q := range questions {
		qErrs := bv.validateQuestionContent(&q)
		for _, e := range qErrs {
			e.Field = fmt.Sprintf("questions[%s].%s", q.ID, e.Field)
			errors = append(errors, e)
		}
	}

	return errors
}

// ValidateStatusTransition validates survey status changes.
func (bv *BusinessValidator) ValidateStatusTransition(currentStatus, newStatus models.SurveyStatus) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.SurveyStatus][]models.SurveyStatus{
		models.StatusDraft:     {models.StatusPublished},
		models.StatusPublished: {models.StatusClosed},
		models.StatusClosed:    {models.StatusPublished},
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// validateQuestionContent checks the typed content payload per question type.
func (bv *BusinessValidator) validateQuestionContent(q *models.Question) ValidationErrors {
	var errors ValidationErrors

	switch {
	case models.IsChoiceType(q.Type):
		content, err := q.ChoiceContent()
		if err != nil {
			errors = append(errors, ValidationError{
				Field:   "content",
				Message: "choice content is malformed",
				Rule:    "question_content",
			})
			return errors
		}
		if len(content.Options) < 1 {
			errors = append(errors, ValidationError{
				Field:   "content.options",
				Message: "must have at least one option",
				Value:   len(content.Options),
				Rule:    "question_content",
			})
		}
		for i, opt := range content.Options {
			if strings.TrimSpace(opt) == "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("content.options[%d]", i),
					Message: "option cannot be empty",
					Rule:    "question_content",
				})
			}
		}

	case q.Type == models.Scale || q.Type == models.Rating:
		content, err := q.ScaleContent()
		if err != nil {
			errors = append(errors, ValidationError{
				Field:   "content",
				Message: "scale content is malformed",
				Rule:    "question_content",
			})
			return errors
		}
		if content.MinValue >= content.MaxValue {
			errors = append(errors, ValidationError{
				Field:   "content.max_value",
				Message: "must be greater than min_value",
				Value:   content.MaxValue,
				Rule:    "question_content",
			})
		}
		if content.MaxValue-content.MinValue > 100 {
			errors = append(errors, ValidationError{
				Field:   "content.max_value",
				Message: "scale range too wide",
				Value:   content.MaxValue,
				Rule:    "question_content",
			})
		}

	case q.Type == models.Likert:
		content, err := q.LikertContent()
		if err != nil {
			errors = append(errors, ValidationError{
				Field:   "content",
				Message: "likert content is malformed",
				Rule:    "question_content",
			})
			return errors
		}
		if len(content.Rows) == 0 {
			errors = append(errors, ValidationError{
				Field:   "content.rows",
				Message: "must have at least one row",
				Rule:    "question_content",
			})
		}
		if len(content.Scale) < 2 {
			errors = append(errors, ValidationError{
				Field:   "content.scale",
				Message: "must have at least two scale labels",
				Value:   len(content.Scale),
				Rule:    "question_content",
			})
		}
	}

	return errors
}

// registerBusinessRules registers custom rule validators used by DTO tags.
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-300 characters)
	bv.validate.RegisterValidation("survey_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) <= 300
	})

	// Description validation (max 2000 characters)
	bv.validate.RegisterValidation("survey_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 2000
	})

	// question type validation
	bv.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.IsValidQuestionType(models.QuestionType(fl.Field().String()))
	})

	// user role validation
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := models.UserRole(fl.Field().String())
		return role == models.RoleAdmin || role == models.RoleCreator || role == models.RoleRespondent
	})
}
