package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AnswerKind discriminates the JSON shapes an answer value can take.
type AnswerKind int

const (
	AnswerEmpty AnswerKind = iota
	AnswerText             // string: choice selection, text, date, yes/no
	AnswerList             // []string: checkboxes
	AnswerNumber           // float64: rating, scale
	AnswerTable            // map[row]column: likert
)

// AnswerValue is a tagged union over the four answer shapes. The zero
// value is the missing answer.
type AnswerValue struct {
	Kind   AnswerKind
	Text   string
	List   []string
	Number float64
	Table  map[string]string
}

func TextAnswer(s string) AnswerValue      { return AnswerValue{Kind: AnswerText, Text: s} }
func ListAnswer(v []string) AnswerValue    { return AnswerValue{Kind: AnswerList, List: v} }
func NumberAnswer(n float64) AnswerValue   { return AnswerValue{Kind: AnswerNumber, Number: n} }
func TableAnswer(m map[string]string) AnswerValue {
	return AnswerValue{Kind: AnswerTable, Table: m}
}

// IsMissing reports whether the value counts as "no answer" for required
// validation: empty string, empty array, or absent entirely.
func (v AnswerValue) IsMissing() bool {
	switch v.Kind {
	case AnswerText:
		return v.Text == ""
	case AnswerList:
		return len(v.List) == 0
	case AnswerNumber:
		return false
	case AnswerTable:
		return len(v.Table) == 0
	default:
		return true
	}
}

// String renders the answer as its export form; lists join with ", ".
func (v AnswerValue) String() string {
	switch v.Kind {
	case AnswerText:
		return v.Text
	case AnswerList:
		return strings.Join(v.List, ", ")
	case AnswerNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case AnswerTable:
		parts := make([]string, 0, len(v.Table))
		for row, col := range v.Table {
			parts = append(parts, row+": "+col)
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerText:
		return json.Marshal(v.Text)
	case AnswerList:
		return json.Marshal(v.List)
	case AnswerNumber:
		return json.Marshal(v.Number)
	case AnswerTable:
		return json.Marshal(v.Table)
	default:
		return []byte("null"), nil
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = AnswerValue{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextAnswer(s)
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*v = ListAnswer(list)
	case '{':
		var table map[string]string
		if err := json.Unmarshal(data, &table); err != nil {
			// Likert columns stored as numbers by older clients.
			var numeric map[string]float64
			if err2 := json.Unmarshal(data, &numeric); err2 != nil {
				return err
			}
			table = make(map[string]string, len(numeric))
			for k, n := range numeric {
				table[k] = strconv.FormatFloat(n, 'f', -1, 64)
			}
		}
		*v = TableAnswer(table)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberAnswer(n)
	}
	return nil
}

// AnswerSet maps question id to answer value.
type AnswerSet map[string]AnswerValue

type SurveyResponse struct {
	ID             string  `json:"id" gorm:"primaryKey;size:64"`
	SurveyID       string  `json:"survey_id" gorm:"not null;index;size:64"`
	RespondentID   *string `json:"respondent_id" gorm:"size:64;index"`
	RespondentName string  `json:"respondent_name" gorm:"size:100"`

	Answers datatypes.JSON `json:"-" gorm:"type:jsonb"`

	SubmittedAt    time.Time `json:"submitted_at"`
	CompletionTime int       `json:"completion_time"` // seconds from render to submit
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}

// AnswerValues decodes the answer map.
func (r *SurveyResponse) AnswerValues() (AnswerSet, error) {
	if len(r.Answers) == 0 {
		return AnswerSet{}, nil
	}
	var answers AnswerSet
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers for response %s: %w", r.ID, err)
	}
	return answers, nil
}

// SetAnswerValues encodes the answer map onto the row.
func (r *SurveyResponse) SetAnswerValues(answers AnswerSet) error {
	if answers == nil {
		answers = AnswerSet{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers for response %s: %w", r.ID, err)
	}
	r.Answers = data
	return nil
}
