package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"time"
)

// ExportQuestionsCSV renders Base Aggregator rows with one column per score of the domain.
func ExportQuestionsCSV(rows []QuestionAnalytics) ([]byte, error) {
	scores := DistributionKeys(rows)
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"question_id", "question", "category", "question_type", "average_score", "total_answers"}
	for _, k := range scores {
		header = append(header, "score_"+k)
	}
	_ = w.Write(header)
	for _, r := range rows {
		rec := []string{
			r.QuestionID,
			r.Question,
			r.Category,
			string(r.QuestionType),
			strconv.FormatFloat(r.AverageScore, 'f', 2, 64),
			strconv.Itoa(r.TotalAnswers),
		}
		for _, k := range scores {
			rec = append(rec, strconv.Itoa(r.Distribution[k]))
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportFeedbackCSV renders open-ended answers in report order.
func ExportFeedbackCSV(entries []FeedbackEntry) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"submitted_at", "respondent_id", "question_id", "question", "category", "answer", "comment"})
	for _, e := range entries {
		rec := []string{
			e.SubmittedAt.UTC().Format(time.RFC3339),
			e.RespondentID,
			e.QuestionID,
			e.Question,
			e.Category,
			e.Answer,
			e.Comment,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// DistributionKeys returns the union of distribution keys in numeric order.
func DistributionKeys(rows []QuestionAnalytics) []string {
	seen := map[string]struct{}{}
	for _, r := range rows {
		for k := range r.Distribution {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys
}
