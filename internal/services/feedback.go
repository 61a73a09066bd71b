package services

import (
	"sort"
	"time"
)

type FeedbackEntry struct {
	QuestionID   string    `json:"questionId,omitempty"`
	Question     string    `json:"question"`
	Category     string    `json:"category"`
	Answer       string    `json:"answer"`
	Comment      string    `json:"comment,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
	RespondentID string    `json:"respondentId"`
}

type FeedbackReport struct {
	SID                string          `json:"sid"`
	TotalFeedbackCount int             `json:"totalFeedbackCount"`
	Feedback           []FeedbackEntry `json:"feedback"`
}

// Feedback lists open-ended answers, newest first. Anonymization is applied
// while tallying, so entries never carry the stored identifier of an
// anonymous respondent.
func (p Policy) Feedback(t *Tally) *FeedbackReport {
	entries := []FeedbackEntry{}
	for _, qt := range t.Questions {
		if st, ok := qt.Stats.(*TextStats); ok {
			entries = append(entries, st.Entries...)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].SubmittedAt.After(entries[j].SubmittedAt) })
	return &FeedbackReport{
		SID:                t.SurveyID,
		TotalFeedbackCount: len(entries),
		Feedback:           entries,
	}
}
