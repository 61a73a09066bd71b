package api

import (
	"context"

	"github.com/soaringjerry/pulse/internal/models"
	"github.com/soaringjerry/pulse/internal/services"
)

// Store is the response store behind the HTTP surface. The read side is what
// the analytics engine consumes; the write side is used by fixture imports.
type Store interface {
	services.AnalyticsStore

	PutSurvey(ctx context.Context, def *models.SurveyDefinition) error
	AppendResponses(ctx context.Context, surveyID, workspace string, rs []models.EmployeeResponse) error
	ListSurveys(ctx context.Context) ([]*models.SurveyDefinition, error)
}

var _ Store = (*memoryStore)(nil)
