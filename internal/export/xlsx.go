package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/pulse/internal/services"
)

const (
	sheetOverview   = "Overview"
	sheetQuestions  = "Questions"
	sheetCategories = "Categories"
	sheetFeedback   = "Feedback"
)

// Workbook renders a full report as an XLSX workbook with one sheet per section.
func Workbook(r *services.FullReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetOverview); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetQuestions, sheetCategories, sheetFeedback} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writers := []struct {
		sheet string
		rows  [][]any
	}{
		{sheetOverview, overviewRows(r)},
		{sheetQuestions, questionRows(r.QuestionAnalytics)},
		{sheetCategories, categoryRows(r.CategoryAnalytics)},
		{sheetFeedback, feedbackRows(r.Feedback)},
	}
	for _, w := range writers {
		if err := writeRows(f, w.sheet, w.rows); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func overviewRows(r *services.FullReport) [][]any {
	rows := [][]any{
		{"Survey", r.SID},
		{"Title", r.Title},
		{"Description", r.Description},
		{"Total responses", r.TotalResponses},
		{"Total skipped", r.TotalSkipped},
		{"Overall average", r.OverallAverage},
		{"Completion rate (%)", r.CompletionRate},
		{},
		{"Question type", "Count", "Percentage"},
	}
	for _, t := range r.QuestionTypeBreakdown {
		rows = append(rows, []any{string(t.Type), t.Count, t.Percentage})
	}
	if tc := r.ToggleCheckbox; tc != nil {
		rows = append(rows, []any{}, []any{"Toggle positive (%)", tc.ToggleQuestions.PositivePercentage})
		for _, c := range tc.CheckboxQuestions.TopChoices {
			rows = append(rows, []any{"Top choice", c.Option, c.Count, c.Question})
		}
	}
	return rows
}

func questionRows(rows []services.QuestionAnalytics) [][]any {
	scores := services.DistributionKeys(rows)
	header := []any{"Question ID", "Question", "Category", "Type", "Average", "Answers"}
	for _, k := range scores {
		header = append(header, "Score "+k)
	}
	out := [][]any{header}
	for _, q := range rows {
		rec := []any{q.QuestionID, q.Question, q.Category, string(q.QuestionType), q.AverageScore, q.TotalAnswers}
		for _, k := range scores {
			rec = append(rec, q.Distribution[k])
		}
		out = append(out, rec)
	}
	return out
}

func categoryRows(cats []services.CategoryAnalytics) [][]any {
	out := [][]any{{"Category", "Average", "Questions", "Responses", "Highest", "Highest score", "Lowest", "Lowest score", "Alpha", "Alpha N"}}
	for _, c := range cats {
		out = append(out, []any{
			c.Category,
			c.AverageScore,
			c.QuestionCount,
			c.TotalResponses,
			c.HighestScoringQuestion.Question,
			c.HighestScoringQuestion.Score,
			c.LowestScoringQuestion.Question,
			c.LowestScoringQuestion.Score,
			c.Reliability.Alpha,
			c.Reliability.N,
		})
	}
	return out
}

func feedbackRows(fb *services.FeedbackReport) [][]any {
	out := [][]any{{"Submitted at", "Respondent", "Question", "Category", "Answer", "Comment"}}
	if fb == nil {
		return out
	}
	for _, e := range fb.Feedback {
		out = append(out, []any{e.SubmittedAt.UTC().Format(time.RFC3339), e.RespondentID, e.Question, e.Category, e.Answer, e.Comment})
	}
	return out
}
