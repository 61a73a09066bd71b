package services

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/pulse/internal/models"
)

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	recs, err := csv.NewReader(strings.NewReader(string(b))).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestExportQuestionsCSV(t *testing.T) {
	q := question("q1", "Work", models.QuestionSlider)
	set := responses(response("u1", 0, answer(q, 4)), response("u2", 1, answer(q, 5)))
	base := DefaultPolicy().Aggregate(tallyOf(definition(q), set))

	b, err := ExportQuestionsCSV(base.Questions)
	require.NoError(t, err)

	recs := readCSV(t, b)
	require.Len(t, recs, 2)
	assert.Equal(t, "question_id,question,category,question_type,average_score,total_answers,score_1,score_2,score_3,score_4,score_5",
		strings.Join(recs[0], ","))
	assert.Equal(t, []string{"q1", "Q q1", "Work", "slider", "4.50", "2", "0", "0", "0", "1", "1"}, recs[1])
}

func TestExportFeedbackCSV(t *testing.T) {
	entries := []FeedbackEntry{
		{QuestionID: "q9", Question: "Anything else?", Category: "Culture", Answer: "more, \"quiet\" rooms", SubmittedAt: baseTime, RespondentID: "Anonymous"},
	}

	b, err := ExportFeedbackCSV(entries)
	require.NoError(t, err)

	recs := readCSV(t, b)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"submitted_at", "respondent_id", "question_id", "question", "category", "answer", "comment"}, recs[0])
	assert.Equal(t, "2025-09-18T09:00:00Z", recs[1][0])
	assert.Equal(t, "more, \"quiet\" rooms", recs[1][5])
}

func TestExportQuestionsCSVEmpty(t *testing.T) {
	b, err := ExportQuestionsCSV(nil)
	require.NoError(t, err)
	recs := readCSV(t, b)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0], 6)
}
