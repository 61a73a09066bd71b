package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a survey or its response set is absent.
var ErrNotFound = errors.New("not found")

// QuestionType identifies how an answer is collected and aggregated.
type QuestionType string

const (
	QuestionEmojiScale    QuestionType = "emoji-scale"
	QuestionSlider        QuestionType = "slider"
	QuestionStarRating    QuestionType = "star-rating"
	QuestionRadioGroup    QuestionType = "radio-group"
	QuestionToggle        QuestionType = "toggle"
	QuestionCheckboxGroup QuestionType = "checkbox-group"
	QuestionOpenEnded     QuestionType = "open-ended"
)

// ScoreBased reports whether answers of this type are single numeric ratings usable in averages.
func (t QuestionType) ScoreBased() bool {
	switch t {
	case QuestionEmojiScale, QuestionSlider, QuestionStarRating, QuestionRadioGroup:
		return true
	}
	return false
}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionToggle, QuestionCheckboxGroup, QuestionOpenEnded:
		return true
	}
	return t.ScoreBased()
}

// Question is a single prompt of a survey.
type Question struct {
	ID       string       `json:"id" bson:"id" yaml:"id"`
	Text     string       `json:"text" bson:"text" yaml:"text"`
	Category string       `json:"category" bson:"category" yaml:"category"`
	Type     QuestionType `json:"type" bson:"type" yaml:"type"`
	// Options lists the declared choices of a checkbox-group question.
	Options []string `json:"options,omitempty" bson:"options,omitempty" yaml:"options,omitempty"`
}

// SurveyDefinition is the question layout of a survey.
type SurveyDefinition struct {
	ID          string     `json:"id" bson:"_id" yaml:"id"`
	Workspace   string     `json:"workspace,omitempty" bson:"workspace,omitempty" yaml:"workspace,omitempty"`
	Title       string     `json:"title" bson:"title" yaml:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Questions   []Question `json:"questions" bson:"questions" yaml:"questions"`
}

// AnswerRecord is one answer inside an employee response.
// Answer holds a number, string, bool, list of option labels or nil.
type AnswerRecord struct {
	QuestionID   string       `json:"questionId" bson:"questionId" yaml:"questionId"`
	Question     string       `json:"question" bson:"question" yaml:"question"`
	Category     string       `json:"category" bson:"category" yaml:"category"`
	QuestionType QuestionType `json:"questionType" bson:"questionType" yaml:"questionType"`
	Answer       any          `json:"answer" bson:"answer" yaml:"answer"`
	Comment      string       `json:"comment,omitempty" bson:"comment,omitempty" yaml:"comment,omitempty"`
	Skipped      bool         `json:"skipped" bson:"skipped" yaml:"skipped"`
	IsAnonymous  bool         `json:"isAnonymous" bson:"isAnonymous" yaml:"isAnonymous"`
}

// EmployeeResponse is one submitted survey. Immutable once stored.
type EmployeeResponse struct {
	ID           string         `json:"id,omitempty" bson:"id,omitempty" yaml:"id,omitempty"`
	RespondentID string         `json:"respondentId,omitempty" bson:"respondentId,omitempty" yaml:"respondentId,omitempty"`
	SubmittedAt  time.Time      `json:"submittedAt" bson:"submittedAt" yaml:"submittedAt"`
	IsAnonymous  bool           `json:"isAnonymous" bson:"isAnonymous" yaml:"isAnonymous"`
	Answers      []AnswerRecord `json:"answers" bson:"answers" yaml:"answers"`
}

// SurveyResponseSet holds every response collected for a survey. Append-only.
type SurveyResponseSet struct {
	SurveyID  string             `json:"surveyId" bson:"_id" yaml:"surveyId"`
	Workspace string             `json:"workspace,omitempty" bson:"workspace,omitempty" yaml:"workspace,omitempty"`
	Responses []EmployeeResponse `json:"responses" bson:"responses" yaml:"responses"`
}
