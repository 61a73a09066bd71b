// Package export turns analytics reports into downloadable files.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/soaringjerry/pulse/internal/services"
)

const (
	FormatCSV         = "csv"
	FormatFeedbackCSV = "feedback-csv"
	FormatXLSX        = "xlsx"
)

// Reporter builds the full report an export is rendered from.
type Reporter interface {
	Full(ctx context.Context, surveyID string) (*services.FullReport, error)
}

type Params struct {
	SurveyID string
	Format   string
}

type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service struct {
	reports Reporter
}

func NewService(reports Reporter) *Service {
	return &Service{reports: reports}
}

func (s *Service) Export(ctx context.Context, params Params) (*Result, error) {
	format := strings.ToLower(strings.TrimSpace(params.Format))
	if format == "" {
		format = FormatCSV
	}
	switch format {
	case FormatCSV, FormatFeedbackCSV, FormatXLSX:
	default:
		return nil, services.NewInvalidError(fmt.Sprintf("unsupported format %q", params.Format))
	}

	report, err := s.reports.Full(ctx, params.SurveyID)
	if err != nil {
		return nil, err
	}

	base := "survey-" + params.SurveyID
	switch format {
	case FormatFeedbackCSV:
		var entries []services.FeedbackEntry
		if report.Feedback != nil {
			entries = report.Feedback.Feedback
		}
		b, err := services.ExportFeedbackCSV(entries)
		if err != nil {
			return nil, services.NewInternalError(err)
		}
		return &Result{Filename: base + "-feedback.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case FormatXLSX:
		b, err := Workbook(report)
		if err != nil {
			return nil, services.NewInternalError(err)
		}
		return &Result{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        b,
		}, nil
	default:
		b, err := services.ExportQuestionsCSV(report.QuestionAnalytics)
		if err != nil {
			return nil, services.NewInternalError(err)
		}
		return &Result{Filename: base + "-questions.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	}
}
