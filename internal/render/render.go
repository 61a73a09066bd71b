// Package render prints analytics reports as terminal tables.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/soaringjerry/pulse/internal/services"
)

const (
	msgNoData     = "No data"
	feedbackWidth = 60
)

type Options struct {
	// Color enables ANSI highlighting of averages and percentages.
	Color bool
	// Now anchors relative submission times; defaults to time.Now.
	Now func() time.Time
	// Policy supplies the band thresholds used for highlighting.
	Policy services.Policy
}

type Renderer struct {
	opts Options
	good *color.Color
	bad  *color.Color
	head *color.Color
}

func New(opts Options) *Renderer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy.ScoreMax == 0 {
		opts.Policy = services.DefaultPolicy()
	}
	r := &Renderer{
		opts: opts,
		good: color.New(color.FgGreen),
		bad:  color.New(color.FgRed),
		head: color.New(color.Bold, color.FgCyan),
	}
	for _, c := range []*color.Color{r.good, r.bad, r.head} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Write renders any report produced by the analytics service.
func (r *Renderer) Write(w io.Writer, report any) error {
	var sections []string
	switch rep := report.(type) {
	case *services.OverviewReport:
		sections = r.overview(rep)
	case *services.CategoryReport:
		sections = append(r.overview(rep.OverviewReport), r.categories(rep.CategoryAnalytics))
	case *services.ScoreReport:
		sections = append(r.overview(rep.OverviewReport), r.scores(services.ScoreSummary{
			Ranges:       rep.ScoreRanges,
			TypeAverages: rep.QuestionTypeAverages,
			MostPositive: rep.MostPositive,
			MostNegative: rep.MostNegative,
		})...)
	case *services.ToggleCheckboxReport:
		sections = r.toggleCheckbox(rep)
	case *services.FeedbackReport:
		sections = []string{r.feedback(rep)}
	case *services.FullReport:
		sections = r.overview(rep.OverviewReport)
		sections = append(sections, r.categories(rep.CategoryAnalytics))
		sections = append(sections, r.scores(services.ScoreSummary{
			Ranges:       rep.ScoreRanges,
			TypeAverages: rep.QuestionTypeAverages,
			MostPositive: rep.MostPositive,
			MostNegative: rep.MostNegative,
		})...)
		if rep.ToggleCheckbox != nil {
			sections = append(sections, r.toggleCheckbox(rep.ToggleCheckbox)...)
		}
		if rep.Feedback != nil {
			sections = append(sections, r.feedback(rep.Feedback))
		}
	default:
		return fmt.Errorf("render: unsupported report %T", report)
	}
	_, err := io.WriteString(w, strings.Join(sections, "\n\n")+"\n")
	return err
}

func (r *Renderer) overview(rep *services.OverviewReport) []string {
	if rep == nil {
		return []string{msgNoData}
	}
	header := r.head.Sprintf("=== %s ===", strings.ToUpper(rep.Title))
	summary := fmt.Sprintf("%s responses | %s skipped | average %s | completion %s",
		humanize.Comma(int64(rep.TotalResponses)),
		humanize.Comma(int64(rep.TotalSkipped)),
		r.score(rep.OverallAverage),
		r.percent(rep.CompletionRate))
	if rep.Description != "" {
		header += "\n" + rep.Description
	}

	questions := newTable("Questions")
	questions.AppendHeader(table.Row{"Question", "Category", "Type", "Average", "Answers"})
	for _, q := range rep.QuestionAnalytics {
		questions.AppendRow(table.Row{q.Question, q.Category, q.QuestionType, r.score(q.AverageScore), humanize.Comma(int64(q.TotalAnswers))})
	}
	if len(rep.QuestionAnalytics) == 0 {
		questions.AppendRow(table.Row{msgNoData})
	}

	types := newTable("Question types")
	types.AppendHeader(table.Row{"Type", "Count", "Share"})
	for _, s := range rep.QuestionTypeBreakdown {
		types.AppendRow(table.Row{s.Type, s.Count, fmt.Sprintf("%.0f%%", s.Percentage)})
	}
	return []string{header + "\n" + summary, questions.Render(), types.Render()}
}

func (r *Renderer) categories(rows []services.CategoryAnalytics) string {
	t := newTable("Categories")
	t.AppendHeader(table.Row{"Category", "Average", "Questions", "Responses", "Highest", "Lowest", "Alpha"})
	for _, c := range rows {
		alpha := "-"
		if c.Reliability.N > 0 {
			alpha = fmt.Sprintf("%.2f (n=%d)", c.Reliability.Alpha, c.Reliability.N)
		}
		t.AppendRow(table.Row{
			c.Category,
			r.score(c.AverageScore),
			c.QuestionCount,
			humanize.Comma(int64(c.TotalResponses)),
			c.HighestScoringQuestion.Question,
			c.LowestScoringQuestion.Question,
			alpha,
		})
	}
	if len(rows) == 0 {
		t.AppendRow(table.Row{msgNoData})
	}
	return t.Render()
}

func (r *Renderer) scores(s services.ScoreSummary) []string {
	bands := newTable("Score ranges")
	bands.AppendHeader(table.Row{"Band", "Questions"})
	for _, b := range []struct {
		name string
		band services.ScoreBand
	}{
		{"very negative", s.Ranges.VeryNegative},
		{"negative", s.Ranges.Negative},
		{"neutral", s.Ranges.Neutral},
		{"positive", s.Ranges.Positive},
		{"very positive", s.Ranges.VeryPositive},
	} {
		bands.AppendRow(table.Row{b.name, b.band.Count})
	}

	types := newTable("Averages by type")
	types.AppendHeader(table.Row{"Type", "Average", "Questions"})
	for _, ta := range s.TypeAverages {
		types.AppendRow(table.Row{ta.QuestionType, r.score(ta.AverageScore), ta.QuestionCount})
	}

	ranked := newTable("Extremes")
	ranked.AppendHeader(table.Row{"", "Question", "Category", "Average"})
	for _, q := range s.MostPositive {
		ranked.AppendRow(table.Row{"+", q.Question, q.Category, r.score(q.AverageScore)})
	}
	ranked.AppendSeparator()
	for _, q := range s.MostNegative {
		ranked.AppendRow(table.Row{"-", q.Question, q.Category, r.score(q.AverageScore)})
	}
	return []string{bands.Render(), types.Render(), ranked.Render()}
}

func (r *Renderer) toggleCheckbox(rep *services.ToggleCheckboxReport) []string {
	toggles := newTable(fmt.Sprintf("Toggles (%s positive)", r.percent(rep.ToggleQuestions.PositivePercentage)))
	toggles.AppendHeader(table.Row{"Question", "Category", "Yes", "No", "Yes %", "Responders"})
	for _, q := range rep.ToggleQuestions.Questions {
		toggles.AppendRow(table.Row{q.Question, q.Category, q.TrueCount, q.FalseCount, r.percent(q.Percentages.True), q.ResponderCount})
	}

	checkboxes := newTable("Checkboxes")
	checkboxes.AppendHeader(table.Row{"Question", "Option", "Selections", "Responders", "Share"})
	for _, q := range rep.CheckboxQuestions.Questions {
		for i, o := range q.Options {
			label := ""
			if i == 0 {
				label = q.Question
			}
			checkboxes.AppendRow(table.Row{label, o.Option, o.Count, o.ResponderCount, fmt.Sprintf("%.0f%%", o.Percentage)})
		}
	}

	cats := make([]string, 0, len(rep.CategoryResponseRates))
	for c := range rep.CategoryResponseRates {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	rates := newTable("Category response rates")
	rates.AppendHeader(table.Row{"Category", "Questions", "Responders", "Avg responders"})
	for _, c := range cats {
		rate := rep.CategoryResponseRates[c]
		rates.AppendRow(table.Row{c, rate.TotalQuestions, rate.TotalResponders, rate.AverageResponders})
	}
	return []string{toggles.Render(), checkboxes.Render(), rates.Render()}
}

func (r *Renderer) feedback(rep *services.FeedbackReport) string {
	t := newTable(fmt.Sprintf("Feedback (%s)", humanize.Comma(int64(rep.TotalFeedbackCount))))
	t.AppendHeader(table.Row{"When", "From", "Question", "Answer"})
	now := r.opts.Now()
	for _, f := range rep.Feedback {
		t.AppendRow(table.Row{humanize.RelTime(f.SubmittedAt, now, "ago", "from now"), f.RespondentID, f.Question, truncate(f.Answer, feedbackWidth)})
	}
	if len(rep.Feedback) == 0 {
		t.AppendRow(table.Row{msgNoData})
	}
	return t.Render()
}

func (r *Renderer) score(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	p := r.opts.Policy
	switch {
	case v >= p.Bands.Positive:
		return r.good.Sprint(s)
	case v > 0 && v < p.Bands.Neutral:
		return r.bad.Sprint(s)
	}
	return s
}

func (r *Renderer) percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s", title)
	return t
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
