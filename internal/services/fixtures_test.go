package services

import (
	"time"

	"github.com/soaringjerry/pulse/internal/models"
)

var baseTime = time.Date(2025, 9, 18, 9, 0, 0, 0, time.UTC)

func question(id, category string, typ models.QuestionType, options ...string) models.Question {
	return models.Question{ID: id, Text: "Q " + id, Category: category, Type: typ, Options: options}
}

func definition(questions ...models.Question) *models.SurveyDefinition {
	return &models.SurveyDefinition{ID: "S1", Title: "Pulse", Description: "Quarterly pulse", Questions: questions}
}

func answer(q models.Question, v any) models.AnswerRecord {
	return models.AnswerRecord{QuestionID: q.ID, Question: q.Text, Category: q.Category, QuestionType: q.Type, Answer: v}
}

func skip(q models.Question) models.AnswerRecord {
	return models.AnswerRecord{QuestionID: q.ID, Question: q.Text, Category: q.Category, QuestionType: q.Type, Skipped: true}
}

func response(respondent string, minutes int, answers ...models.AnswerRecord) models.EmployeeResponse {
	return models.EmployeeResponse{
		ID:           "R-" + respondent,
		RespondentID: respondent,
		SubmittedAt:  baseTime.Add(time.Duration(minutes) * time.Minute),
		Answers:      answers,
	}
}

func anonymous(id string, minutes int, answers ...models.AnswerRecord) models.EmployeeResponse {
	r := response("", minutes, answers...)
	r.ID = id
	r.IsAnonymous = true
	return r
}

func responses(rs ...models.EmployeeResponse) *models.SurveyResponseSet {
	return &models.SurveyResponseSet{SurveyID: "S1", Workspace: "W1", Responses: rs}
}

func tallyOf(def *models.SurveyDefinition, set *models.SurveyResponseSet) *Tally {
	return DefaultPolicy().BuildTally(def, set, nil)
}
