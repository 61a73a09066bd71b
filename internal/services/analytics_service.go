package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/soaringjerry/pulse/internal/metrics"
	"github.com/soaringjerry/pulse/internal/models"
)

const tracerName = "github.com/soaringjerry/pulse/internal/services"

// AnalyticsStore is the read side of the response store.
// Absent data is reported as models.ErrNotFound or a nil result.
type AnalyticsStore interface {
	GetSurveyDefinition(ctx context.Context, surveyID string) (*models.SurveyDefinition, error)
	GetResponseSet(ctx context.Context, surveyID string) (*models.SurveyResponseSet, error)
}

type ReportType string

const (
	ReportOverview       ReportType = "overview"
	ReportCategories     ReportType = "categories"
	ReportScores         ReportType = "scores"
	ReportToggleCheckbox ReportType = "toggle-checkbox"
	ReportFeedback       ReportType = "feedback"
	ReportFull           ReportType = "full"
)

// ReportTypes lists every accepted report type.
var ReportTypes = []ReportType{ReportOverview, ReportCategories, ReportScores, ReportToggleCheckbox, ReportFeedback, ReportFull}

// ParseReportType maps a request parameter to a report type; empty means overview.
func ParseReportType(s string) (ReportType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ReportOverview, nil
	}
	for _, rt := range ReportTypes {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", NewInvalidError(fmt.Sprintf("unsupported report type %q", s))
}

// FullReport is every report computed from one snapshot.
type FullReport struct {
	*OverviewReport
	CategoryAnalytics    []CategoryAnalytics   `json:"categoryAnalytics"`
	ScoreRanges          ScoreRanges           `json:"scoreRanges"`
	QuestionTypeAverages []TypeAverage         `json:"questionTypeAverages"`
	MostPositive         []RankedQuestion      `json:"mostPositive"`
	MostNegative         []RankedQuestion      `json:"mostNegative"`
	ToggleCheckbox       *ToggleCheckboxReport `json:"toggleCheckbox"`
	Feedback             *FeedbackReport       `json:"feedback"`
}

type AnalyticsService struct {
	store   AnalyticsStore
	policy  Policy
	log     *logrus.Entry
	metrics *metrics.Recorder
	tracer  trace.Tracer
}

type Option func(*AnalyticsService)

func WithPolicy(p Policy) Option { return func(s *AnalyticsService) { s.policy = p } }

func WithLogger(l *logrus.Entry) Option { return func(s *AnalyticsService) { s.log = l } }

func WithMetrics(m *metrics.Recorder) Option { return func(s *AnalyticsService) { s.metrics = m } }

func NewAnalyticsService(store AnalyticsStore, opts ...Option) *AnalyticsService {
	s := &AnalyticsService{
		store:  store,
		policy: DefaultPolicy(),
		log:    logrus.NewEntry(logrus.StandardLogger()),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "analytics")
	return s
}

// Report builds the report selected by reportType. The concrete result is one of
// *OverviewReport, *CategoryReport, *ScoreReport, *ToggleCheckboxReport,
// *FeedbackReport or *FullReport.
func (s *AnalyticsService) Report(ctx context.Context, surveyID, reportType string) (any, error) {
	rt, err := ParseReportType(reportType)
	if err != nil {
		s.metrics.ReportError(strings.TrimSpace(reportType), string(ErrorInvalid))
		return nil, err
	}
	switch rt {
	case ReportCategories:
		return s.Categories(ctx, surveyID)
	case ReportScores:
		return s.Scores(ctx, surveyID)
	case ReportToggleCheckbox:
		return s.ToggleCheckbox(ctx, surveyID)
	case ReportFeedback:
		return s.Feedback(ctx, surveyID)
	case ReportFull:
		return s.Full(ctx, surveyID)
	default:
		return s.Overview(ctx, surveyID)
	}
}

func (s *AnalyticsService) Overview(ctx context.Context, surveyID string) (*OverviewReport, error) {
	return compute(ctx, s, ReportOverview, surveyID, func(_ context.Context, t *Tally) (*OverviewReport, error) {
		return s.policy.Overview(t, s.policy.Aggregate(t)), nil
	})
}

func (s *AnalyticsService) Categories(ctx context.Context, surveyID string) (*CategoryReport, error) {
	return compute(ctx, s, ReportCategories, surveyID, func(_ context.Context, t *Tally) (*CategoryReport, error) {
		base := s.policy.Aggregate(t)
		return &CategoryReport{
			OverviewReport:    s.policy.Overview(t, base),
			CategoryAnalytics: s.policy.Categories(t, base),
		}, nil
	})
}

func (s *AnalyticsService) Scores(ctx context.Context, surveyID string) (*ScoreReport, error) {
	return compute(ctx, s, ReportScores, surveyID, func(_ context.Context, t *Tally) (*ScoreReport, error) {
		base := s.policy.Aggregate(t)
		sum := s.policy.RankScores(base)
		return &ScoreReport{
			OverviewReport:       s.policy.Overview(t, base),
			ScoreRanges:          sum.Ranges,
			QuestionTypeAverages: sum.TypeAverages,
			MostPositive:         sum.MostPositive,
			MostNegative:         sum.MostNegative,
		}, nil
	})
}

func (s *AnalyticsService) ToggleCheckbox(ctx context.Context, surveyID string) (*ToggleCheckboxReport, error) {
	return compute(ctx, s, ReportToggleCheckbox, surveyID, func(_ context.Context, t *Tally) (*ToggleCheckboxReport, error) {
		return s.policy.ToggleCheckbox(t, s.policy.Aggregate(t)), nil
	})
}

func (s *AnalyticsService) Feedback(ctx context.Context, surveyID string) (*FeedbackReport, error) {
	return compute(ctx, s, ReportFeedback, surveyID, func(_ context.Context, t *Tally) (*FeedbackReport, error) {
		return s.policy.Feedback(t), nil
	})
}

// Full runs every reporter concurrently against one snapshot.
func (s *AnalyticsService) Full(ctx context.Context, surveyID string) (*FullReport, error) {
	return compute(ctx, s, ReportFull, surveyID, func(ctx context.Context, t *Tally) (*FullReport, error) {
		base := s.policy.Aggregate(t)
		out := &FullReport{}
		g, gctx := errgroup.WithContext(ctx)
		s.goReporter(gctx, g, "overview", func() { out.OverviewReport = s.policy.Overview(t, base) })
		s.goReporter(gctx, g, "categories", func() { out.CategoryAnalytics = s.policy.Categories(t, base) })
		s.goReporter(gctx, g, "scores", func() {
			sum := s.policy.RankScores(base)
			out.ScoreRanges = sum.Ranges
			out.QuestionTypeAverages = sum.TypeAverages
			out.MostPositive = sum.MostPositive
			out.MostNegative = sum.MostNegative
		})
		s.goReporter(gctx, g, "toggle-checkbox", func() { out.ToggleCheckbox = s.policy.ToggleCheckbox(t, base) })
		s.goReporter(gctx, g, "feedback", func() { out.Feedback = s.policy.Feedback(t) })
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// goReporter runs fn on g, turning a panic into an error so one failing
// reporter fails the whole report instead of the process.
func (s *AnalyticsService) goReporter(ctx context.Context, g *errgroup.Group, name string, fn func()) {
	g.Go(func() (err error) {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, span := s.tracer.Start(ctx, "reporter."+name)
		defer span.End()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("reporter %s panicked: %v", name, r)
			}
		}()
		fn()
		return nil
	})
}

func compute[T any](ctx context.Context, s *AnalyticsService, rt ReportType, surveyID string, build func(context.Context, *Tally) (T, error)) (out T, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "analytics.report", trace.WithAttributes(
		attribute.String("survey.id", surveyID),
		attribute.String("report.type", string(rt)),
	))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out, err = zero, NewInternalError(fmt.Errorf("panic: %v", r))
		}
		s.finish(span, rt, surveyID, start, err)
	}()

	if strings.TrimSpace(surveyID) == "" {
		return out, NewInvalidError("survey id is required")
	}
	t, err := s.snapshot(ctx, surveyID)
	if err != nil {
		return out, err
	}
	res, err := build(ctx, t)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return out, NewInternalError(err)
	}
	return res, nil
}

func (s *AnalyticsService) finish(span trace.Span, rt ReportType, surveyID string, start time.Time, err error) {
	elapsed := time.Since(start)
	entry := s.log.WithFields(logrus.Fields{
		"survey_id":   surveyID,
		"report":      string(rt),
		"duration_ms": elapsed.Milliseconds(),
	})
	if err == nil {
		s.metrics.ObserveReport(string(rt), "ok", elapsed)
		entry.Debug("report built")
		return
	}
	code := CodeOf(err)
	s.metrics.ObserveReport(string(rt), "error", elapsed)
	s.metrics.ReportError(string(rt), string(code))
	span.SetStatus(codes.Error, string(code))
	if code == ErrorInternal {
		span.RecordError(err)
		entry.WithField("error", fmt.Sprintf("%v", errors.Unwrap(err))).Error("report failed")
		return
	}
	entry.WithField("code", string(code)).Info(err.Error())
}

// snapshot fetches the definition and response set once and tallies them.
func (s *AnalyticsService) snapshot(ctx context.Context, surveyID string) (*Tally, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewInternalError(err)
	}
	def, err := s.store.GetSurveyDefinition(ctx, surveyID)
	if err = lookupError(err, def == nil, "survey", surveyID); err != nil {
		return nil, err
	}
	set, err := s.store.GetResponseSet(ctx, surveyID)
	if err = lookupError(err, set == nil, "response set", surveyID); err != nil {
		return nil, err
	}
	log := s.log.WithField("survey_id", surveyID)
	return s.policy.BuildTally(def, set, func(m MalformedAnswer) {
		s.metrics.MalformedAnswer(m.Reason)
		log.WithFields(logrus.Fields{
			"response_id": m.ResponseID,
			"question_id": m.QuestionID,
			"reason":      m.Reason,
		}).Warn("skipping malformed answer")
	}), nil
}

func lookupError(err error, absent bool, what, surveyID string) error {
	switch {
	case errors.Is(err, models.ErrNotFound), err == nil && absent:
		return NewNotFoundError(fmt.Sprintf("%s %s not found", what, surveyID))
	case err != nil:
		return NewInternalError(fmt.Errorf("load %s %s: %w", what, surveyID, err))
	}
	return nil
}
