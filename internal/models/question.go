package models

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	Checkboxes     QuestionType = "checkboxes"
	ShortText      QuestionType = "short_text"
	LongText       QuestionType = "long_text"
	Rating         QuestionType = "rating"
	Scale          QuestionType = "scale"
	Dropdown       QuestionType = "dropdown"
	Date           QuestionType = "date"
	YesNo          QuestionType = "yes_no"
	Likert         QuestionType = "likert"
	Section        QuestionType = "section"
)

// IsChoiceType reports whether the type carries an option list.
func IsChoiceType(t QuestionType) bool {
	return t == MultipleChoice || t == Checkboxes || t == Dropdown
}

// IsValidQuestionType reports whether t is a known question type.
func IsValidQuestionType(t QuestionType) bool {
	switch t {
	case MultipleChoice, Checkboxes, ShortText, LongText, Rating,
		Scale, Dropdown, Date, YesNo, Likert, Section:
		return true
	}
	return false
}

// Question is the tagged variant unit of a survey. Type selects which
// content payload fields are meaningful; the variant schemas below
// document the shape stored in Content.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Title         string       `json:"title"`
	TitleTh       string       `json:"title_th"`
	Description   *string      `json:"description,omitempty"`
	DescriptionTh *string      `json:"description_th,omitempty"`
	Required      bool         `json:"required"`

	// Variant payload, encoded per Type. Empty for types without one.
	Content json.RawMessage `json:"content,omitempty"`
}

// ===== QUESTION CONTENT SCHEMAS =====

// ChoiceContent is the payload for multiple_choice, checkboxes and dropdown.
type ChoiceContent struct {
	Options   []string `json:"options" validate:"min=1"`
	OptionsTh []string `json:"options_th"`
	HasOther  bool     `json:"has_other"`
}

// ScaleContent is the payload for scale questions.
type ScaleContent struct {
	MinValue int    `json:"min_value"`
	MaxValue int    `json:"max_value"`
	MinLabel string `json:"min_label"`
	MaxLabel string `json:"max_label"`
}

// LikertContent is the payload for likert table questions. RowHasOther
// maps 1:1 with Rows and marks rows that show a free-text "please specify".
type LikertContent struct {
	Rows        []string `json:"rows" validate:"min=1"`
	RowsTh      []string `json:"rows_th"`
	RowHasOther []bool   `json:"row_has_other"`
	Scale       []string `json:"scale" validate:"min=2"`
	ScaleTh     []string `json:"scale_th"`
}

// ChoiceContent decodes the payload of a choice-type question.
func (q *Question) ChoiceContent() (*ChoiceContent, error) {
	if !IsChoiceType(q.Type) {
		return nil, fmt.Errorf("question %s has type %s, not a choice type", q.ID, q.Type)
	}
	var c ChoiceContent
	if err := json.Unmarshal(q.Content, &c); err != nil {
		return nil, fmt.Errorf("failed to decode choice content for question %s: %w", q.ID, err)
	}
	return &c, nil
}

// ScaleContent decodes the payload of a scale or rating question.
// Rating questions without an explicit payload get the 1..5 default.
func (q *Question) ScaleContent() (*ScaleContent, error) {
	if q.Type != Scale && q.Type != Rating {
		return nil, fmt.Errorf("question %s has type %s, not scale", q.ID, q.Type)
	}
	if len(q.Content) == 0 {
		return &ScaleContent{MinValue: 1, MaxValue: 5}, nil
	}
	var c ScaleContent
	if err := json.Unmarshal(q.Content, &c); err != nil {
		return nil, fmt.Errorf("failed to decode scale content for question %s: %w", q.ID, err)
	}
	return &c, nil
}

// LikertContent decodes the payload of a likert question.
func (q *Question) LikertContent() (*LikertContent, error) {
	if q.Type != Likert {
		return nil, fmt.Errorf("question %s has type %s, not likert", q.ID, q.Type)
	}
	var c LikertContent
	if err := json.Unmarshal(q.Content, &c); err != nil {
		return nil, fmt.Errorf("failed to decode likert content for question %s: %w", q.ID, err)
	}
	return &c, nil
}

// SetContent encodes a content payload into the question.
func (q *Question) SetContent(content interface{}) error {
	if content == nil {
		q.Content = nil
		return nil
	}
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to encode question content: %w", err)
	}
	q.Content = data
	return nil
}

// Clone returns a deep copy of the question. Content bytes are copied so
// option arrays never alias the source question.
func (q Question) Clone() Question {
	copied := q
	if q.Content != nil {
		copied.Content = append(json.RawMessage(nil), q.Content...)
	}
	if q.Description != nil {
		d := *q.Description
		copied.Description = &d
	}
	if q.DescriptionTh != nil {
		d := *q.DescriptionTh
		copied.DescriptionTh = &d
	}
	return copied
}
