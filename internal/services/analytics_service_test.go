package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/pulse/internal/metrics"
	"github.com/soaringjerry/pulse/internal/models"
)

type stubAnalyticsStore struct {
	mu     sync.Mutex
	defs   map[string]*models.SurveyDefinition
	sets   map[string]*models.SurveyResponseSet
	err    error
	panics bool
	calls  int
}

func newStubStore(def *models.SurveyDefinition, set *models.SurveyResponseSet) *stubAnalyticsStore {
	s := &stubAnalyticsStore{defs: map[string]*models.SurveyDefinition{}, sets: map[string]*models.SurveyResponseSet{}}
	if def != nil {
		s.defs[def.ID] = def
	}
	if set != nil {
		s.sets[set.SurveyID] = set
	}
	return s
}

func (s *stubAnalyticsStore) GetSurveyDefinition(_ context.Context, id string) (*models.SurveyDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.panics {
		panic("store exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.defs[id], nil
}

func (s *stubAnalyticsStore) GetResponseSet(_ context.Context, id string) (*models.SurveyResponseSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return set, nil
}

func sampleSurvey() (*models.SurveyDefinition, *models.SurveyResponseSet) {
	mood := question("q1", "Wellbeing", models.QuestionEmojiScale)
	load := question("q2", "Work", models.QuestionSlider)
	remote := question("q3", "Work", models.QuestionToggle)
	perks := question("q4", "Benefits", models.QuestionCheckboxGroup, "Gym", "Lunch")
	ideas := question("q5", "Culture", models.QuestionOpenEnded)
	def := definition(mood, load, remote, perks, ideas)
	set := responses(
		response("u1", 0, answer(mood, 4), answer(load, 3), answer(remote, true), answer(perks, []any{"Gym"}), answer(ideas, "more pairing")),
		response("u2", 5, answer(mood, 5), skip(load), answer(remote, 0), answer(perks, []any{"Gym", "Lunch"}), skip(ideas)),
		anonymous("R-a", 10, answer(mood, 2), answer(load, 1), answer(remote, 5), skip(perks), answer(ideas, "less meetings")),
	)
	return def, set
}

func newTestService(store AnalyticsStore, opts ...Option) *AnalyticsService {
	log, _ := logtest.NewNullLogger()
	return NewAnalyticsService(store, append([]Option{WithLogger(logrus.NewEntry(log))}, opts...)...)
}

func TestReportDefaultsToOverview(t *testing.T) {
	svc := newTestService(newStubStore(sampleSurvey()))

	out, err := svc.Report(context.Background(), "S1", "")
	require.NoError(t, err)
	report, ok := out.(*OverviewReport)
	require.True(t, ok)
	assert.Equal(t, "S1", report.SID)
	assert.Equal(t, 3, report.TotalResponses)
	assert.Equal(t, 3, report.TotalSkipped)
	assert.Equal(t, 80.0, report.CompletionRate)
	require.Len(t, report.QuestionAnalytics, 2)
}

func TestReportDispatch(t *testing.T) {
	svc := newTestService(newStubStore(sampleSurvey()))
	cases := map[string]any{
		"overview":        &OverviewReport{},
		"categories":      &CategoryReport{},
		" Scores ":        &ScoreReport{},
		"toggle-checkbox": &ToggleCheckboxReport{},
		"feedback":        &FeedbackReport{},
		"full":            &FullReport{},
	}
	for rt, want := range cases {
		t.Run(rt, func(t *testing.T) {
			out, err := svc.Report(context.Background(), "S1", rt)
			require.NoError(t, err)
			assert.IsType(t, want, out)
		})
	}
}

func TestReportErrors(t *testing.T) {
	def, set := sampleSurvey()

	t.Run("unknown report type", func(t *testing.T) {
		store := newStubStore(def, set)
		_, err := newTestService(store).Report(context.Background(), "S1", "histogram")
		assert.Equal(t, ErrorInvalid, CodeOf(err))
		assert.Zero(t, store.calls)
	})
	t.Run("blank survey id", func(t *testing.T) {
		_, err := newTestService(newStubStore(def, set)).Overview(context.Background(), "  ")
		assert.Equal(t, ErrorInvalid, CodeOf(err))
	})
	t.Run("unknown survey", func(t *testing.T) {
		_, err := newTestService(newStubStore(def, set)).Overview(context.Background(), "missing")
		assert.Equal(t, ErrorNotFound, CodeOf(err))
	})
	t.Run("missing response set", func(t *testing.T) {
		_, err := newTestService(newStubStore(def, nil)).Feedback(context.Background(), "S1")
		assert.Equal(t, ErrorNotFound, CodeOf(err))
	})
	t.Run("store failure", func(t *testing.T) {
		store := newStubStore(def, set)
		store.err = errors.New("connection reset")
		_, err := newTestService(store).Categories(context.Background(), "S1")
		se, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrorInternal, se.Code)
		assert.Equal(t, "internal error", se.Error())
		assert.ErrorContains(t, se.Err, "connection reset")
	})
	t.Run("store not found sentinel", func(t *testing.T) {
		store := newStubStore(def, set)
		store.err = models.ErrNotFound
		_, err := newTestService(store).Scores(context.Background(), "S1")
		assert.Equal(t, ErrorNotFound, CodeOf(err))
	})
	t.Run("panic", func(t *testing.T) {
		store := newStubStore(def, set)
		store.panics = true
		out, err := newTestService(store).ToggleCheckbox(context.Background(), "S1")
		assert.Nil(t, out)
		assert.Equal(t, ErrorInternal, CodeOf(err))
	})
	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out, err := newTestService(newStubStore(def, set)).Full(ctx, "S1")
		assert.Nil(t, out)
		assert.Equal(t, ErrorInternal, CodeOf(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFullReportMatchesIndividualReports(t *testing.T) {
	svc := newTestService(newStubStore(sampleSurvey()))
	ctx := context.Background()

	full, err := svc.Full(ctx, "S1")
	require.NoError(t, err)
	categories, err := svc.Categories(ctx, "S1")
	require.NoError(t, err)
	scores, err := svc.Scores(ctx, "S1")
	require.NoError(t, err)
	tc, err := svc.ToggleCheckbox(ctx, "S1")
	require.NoError(t, err)
	feedback, err := svc.Feedback(ctx, "S1")
	require.NoError(t, err)

	assert.Equal(t, categories.OverviewReport, full.OverviewReport)
	assert.Equal(t, categories.CategoryAnalytics, full.CategoryAnalytics)
	assert.Equal(t, scores.ScoreRanges, full.ScoreRanges)
	assert.Equal(t, scores.MostPositive, full.MostPositive)
	assert.Equal(t, scores.MostNegative, full.MostNegative)
	assert.Equal(t, scores.QuestionTypeAverages, full.QuestionTypeAverages)
	assert.Equal(t, tc, full.ToggleCheckbox)
	assert.Equal(t, feedback, full.Feedback)
}

func TestReportsAreIdempotent(t *testing.T) {
	svc := newTestService(newStubStore(sampleSurvey()))
	for _, rt := range ReportTypes {
		first, err := svc.Report(context.Background(), "S1", string(rt))
		require.NoError(t, err)
		second, err := svc.Report(context.Background(), "S1", string(rt))
		require.NoError(t, err)
		assert.Equal(t, first, second, string(rt))
	}
}

func TestToggleCheckboxThroughService(t *testing.T) {
	svc := newTestService(newStubStore(sampleSurvey()))

	report, err := svc.ToggleCheckbox(context.Background(), "S1")
	require.NoError(t, err)

	require.Len(t, report.ToggleQuestions.Questions, 1)
	toggle := report.ToggleQuestions.Questions[0]
	assert.Equal(t, 2, toggle.TrueCount)
	assert.Equal(t, 1, toggle.FalseCount)
	assert.Equal(t, 3, toggle.ResponderCount)
	assert.InDelta(t, 100, toggle.Percentages.True+toggle.Percentages.False, 0.1)

	require.Len(t, report.CheckboxQuestions.Questions, 1)
	perks := report.CheckboxQuestions.Questions[0]
	assert.Equal(t, 2, perks.TotalResponders)
	assert.Equal(t, "Gym", perks.Options[0].Option)
	assert.Equal(t, 100.0, perks.Options[0].Percentage)
}

func TestMalformedAnswersAreLoggedAndCounted(t *testing.T) {
	mood := question("q1", "Wellbeing", models.QuestionEmojiScale)
	def := definition(mood)
	set := responses(response("u1", 0, answer(mood, 4), answer(mood, "n/a")))

	log, hook := logtest.NewNullLogger()
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)
	svc := NewAnalyticsService(newStubStore(def, set), WithLogger(logrus.NewEntry(log)), WithMetrics(rec))

	report, err := svc.Overview(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.QuestionAnalytics[0].TotalAnswers)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["reason"] == reasonUncoercible {
			warned = true
		}
	}
	assert.True(t, warned)

	count, err := testutil.GatherAndCount(reg, "pulse_malformed_answers_total", "pulse_report_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestParseReportType(t *testing.T) {
	rt, err := ParseReportType("")
	require.NoError(t, err)
	assert.Equal(t, ReportOverview, rt)

	rt, err = ParseReportType("TOGGLE-CHECKBOX")
	require.NoError(t, err)
	assert.Equal(t, ReportToggleCheckbox, rt)

	_, err = ParseReportType("pie")
	assert.Equal(t, ErrorInvalid, CodeOf(err))
}
