package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/pulse/internal/models"
	"github.com/soaringjerry/pulse/internal/services"
)

var now = time.Date(2025, 9, 18, 12, 0, 0, 0, time.UTC)

func sampleOverview() *services.OverviewReport {
	return &services.OverviewReport{
		SID:            "S1",
		Title:          "Quarterly pulse",
		Description:    "Autumn round",
		TotalResponses: 1234,
		TotalSkipped:   2,
		QuestionAnalytics: []services.QuestionAnalytics{
			{QuestionID: "q1", Question: "Workload", Category: "Work", QuestionType: models.QuestionSlider, AverageScore: 4.5, TotalAnswers: 1200},
		},
		OverallAverage: 4.5,
		CompletionRate: 83,
		QuestionTypeBreakdown: []services.TypeShare{
			{Type: models.QuestionSlider, Count: 1, Percentage: 100},
		},
	}
}

func render(t *testing.T, opts Options, report any) string {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return now }
	}
	var buf bytes.Buffer
	require.NoError(t, New(opts).Write(&buf, report))
	return buf.String()
}

func TestOverview(t *testing.T) {
	out := render(t, Options{}, sampleOverview())

	assert.Contains(t, out, "=== QUARTERLY PULSE ===")
	assert.Contains(t, out, "Autumn round")
	assert.Contains(t, out, "1,234 responses | 2 skipped | average 4.50 | completion 83%")
	assert.Contains(t, out, "Workload")
	assert.Contains(t, out, "1,200")
	assert.NotContains(t, out, "\x1b[")
}

func TestColorHighlightsScores(t *testing.T) {
	out := render(t, Options{Color: true}, sampleOverview())
	assert.Contains(t, out, "\x1b[32m4.50")
}

func TestFeedbackUsesRelativeTimes(t *testing.T) {
	rep := &services.FeedbackReport{
		SID:                "S1",
		TotalFeedbackCount: 1,
		Feedback: []services.FeedbackEntry{{
			Question:     "Anything else?",
			Answer:       strings.Repeat("x", 80),
			SubmittedAt:  now.Add(-3 * time.Hour),
			RespondentID: "Anonymous",
		}},
	}
	out := render(t, Options{}, rep)

	assert.Contains(t, out, "Feedback (1)")
	assert.Contains(t, out, "3 hours ago")
	assert.Contains(t, out, "Anonymous")
	assert.Contains(t, out, strings.Repeat("x", feedbackWidth-1)+"…")
	assert.NotContains(t, out, strings.Repeat("x", feedbackWidth))
}

func TestFullReport(t *testing.T) {
	full := &services.FullReport{
		OverviewReport: sampleOverview(),
		CategoryAnalytics: []services.CategoryAnalytics{{
			Category:      "Work",
			AverageScore:  4.5,
			QuestionCount: 1,
			Reliability:   services.Reliability{Alpha: 0.81, N: 12},
		}},
		ToggleCheckbox: &services.ToggleCheckboxReport{
			SID: "S1",
			ToggleQuestions: services.ToggleSummary{
				Count:              1,
				PositivePercentage: 75,
				Questions:          []services.ToggleQuestionStats{{Question: "Remote?", Category: "Work", TrueCount: 3, FalseCount: 1}},
			},
			CategoryResponseRates: map[string]services.CategoryResponseRate{
				"Work": {TotalQuestions: 2, TotalResponders: 5, AverageResponders: 3},
			},
		},
		Feedback: &services.FeedbackReport{SID: "S1"},
	}
	out := render(t, Options{}, full)

	for _, want := range []string{"Categories", "0.81 (n=12)", "Score ranges", "very positive", "Toggles (75% positive)", "Remote?", "Category response rates", "Feedback (0)", msgNoData} {
		assert.Contains(t, out, want)
	}
}

func TestUnsupportedReport(t *testing.T) {
	err := New(Options{}).Write(&bytes.Buffer{}, "overview")
	assert.Error(t, err)
}
