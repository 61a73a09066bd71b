package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/soaringjerry/pulse/internal/models"
)

type memoryStore struct {
	mu        sync.RWMutex
	surveys   map[string]*models.SurveyDefinition
	responses map[string]*models.SurveyResponseSet
}

// NewMemoryStore returns a process-local store. Reads hand out copies so a
// report always works on a point-in-time snapshot.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		surveys:   map[string]*models.SurveyDefinition{},
		responses: map[string]*models.SurveyResponseSet{},
	}
}

func (s *memoryStore) PutSurvey(_ context.Context, def *models.SurveyDefinition) error {
	if def == nil || strings.TrimSpace(def.ID) == "" {
		return errors.New("survey id required")
	}
	cp := *def
	cp.Questions = append([]models.Question(nil), def.Questions...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surveys[cp.ID] = &cp
	return nil
}

func (s *memoryStore) AppendResponses(_ context.Context, surveyID, workspace string, rs []models.EmployeeResponse) error {
	if strings.TrimSpace(surveyID) == "" {
		return errors.New("survey id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.responses[surveyID]
	if set == nil {
		set = &models.SurveyResponseSet{SurveyID: surveyID, Workspace: workspace}
		s.responses[surveyID] = set
	}
	if set.Workspace == "" {
		set.Workspace = workspace
	}
	set.Responses = append(set.Responses, rs...)
	return nil
}

func (s *memoryStore) GetSurveyDefinition(_ context.Context, surveyID string) (*models.SurveyDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def := s.surveys[surveyID]
	if def == nil {
		return nil, models.ErrNotFound
	}
	cp := *def
	cp.Questions = append([]models.Question(nil), def.Questions...)
	return &cp, nil
}

// GetResponseSet returns an empty set for a defined survey nobody answered yet.
func (s *memoryStore) GetResponseSet(_ context.Context, surveyID string) (*models.SurveyResponseSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.responses[surveyID]
	if set == nil {
		def := s.surveys[surveyID]
		if def == nil {
			return nil, models.ErrNotFound
		}
		return &models.SurveyResponseSet{SurveyID: surveyID, Workspace: def.Workspace, Responses: []models.EmployeeResponse{}}, nil
	}
	cp := *set
	cp.Responses = append([]models.EmployeeResponse(nil), set.Responses...)
	return &cp, nil
}

func (s *memoryStore) ListSurveys(_ context.Context) ([]*models.SurveyDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.SurveyDefinition, 0, len(s.surveys))
	for _, def := range s.surveys {
		cp := *def
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
