// Package importer loads survey fixtures (YAML or JSON) and writes them into a
// response store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/pulse/internal/models"
)

// Fixture is a batch of surveys with their collected responses.
type Fixture struct {
	Surveys []SurveyFixture `json:"surveys" yaml:"surveys"`
}

type SurveyFixture struct {
	models.SurveyDefinition `yaml:",inline"`
	Responses               []models.EmployeeResponse `json:"responses,omitempty" yaml:"responses,omitempty"`
}

// Sink is the write side of a response store.
type Sink interface {
	PutSurvey(ctx context.Context, def *models.SurveyDefinition) error
	AppendResponses(ctx context.Context, surveyID, workspace string, rs []models.EmployeeResponse) error
}

// Summary counts what an import wrote.
type Summary struct {
	Surveys   int
	Responses int
	// Generated counts responses that arrived without an id.
	Generated int
}

// Parse decodes a fixture. YAML is a superset of JSON so both go through the
// YAML decoder; the result is normalized to JSON for schema validation and
// typed decoding.
func Parse(data []byte) (*Fixture, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if raw == nil {
		return nil, &ValidationError{Problems: []string{"(root): document is empty"}}
	}
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize fixture: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	var fx Fixture
	if err := json.Unmarshal(doc, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

type Importer struct {
	sink Sink
	now  func() time.Time
	log  *logrus.Entry
}

type Option func(*Importer)

func WithClock(now func() time.Time) Option { return func(i *Importer) { i.now = now } }

func WithLogger(l *logrus.Entry) Option { return func(i *Importer) { i.log = l } }

func New(sink Sink, opts ...Option) *Importer {
	i := &Importer{
		sink: sink,
		now:  time.Now,
		log:  logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import writes every survey of fx and appends its responses. Responses
// without an id get a random one, a zero submission time is stamped with the
// import time, and answers missing question metadata inherit it from the
// survey definition.
func (i *Importer) Import(ctx context.Context, fx *Fixture) (Summary, error) {
	var sum Summary
	if fx == nil {
		return sum, nil
	}
	for idx := range fx.Surveys {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sf := &fx.Surveys[idx]
		def := sf.SurveyDefinition
		if err := i.sink.PutSurvey(ctx, &def); err != nil {
			return sum, fmt.Errorf("put survey %s: %w", def.ID, err)
		}
		sum.Surveys++

		if len(sf.Responses) == 0 {
			continue
		}
		rs, generated := i.prepare(&def, sf.Responses)
		if err := i.sink.AppendResponses(ctx, def.ID, def.Workspace, rs); err != nil {
			return sum, fmt.Errorf("append responses to %s: %w", def.ID, err)
		}
		sum.Responses += len(rs)
		sum.Generated += generated
		i.log.WithFields(logrus.Fields{
			"survey_id": def.ID,
			"responses": len(rs),
			"generated": generated,
		}).Info("survey imported")
	}
	return sum, nil
}

func (i *Importer) prepare(def *models.SurveyDefinition, in []models.EmployeeResponse) ([]models.EmployeeResponse, int) {
	byID := make(map[string]models.Question, len(def.Questions))
	for _, q := range def.Questions {
		byID[q.ID] = q
	}
	stamp := i.now().UTC()
	generated := 0
	out := make([]models.EmployeeResponse, len(in))
	for idx, r := range in {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
			generated++
		}
		if r.SubmittedAt.IsZero() {
			r.SubmittedAt = stamp
		}
		answers := make([]models.AnswerRecord, len(r.Answers))
		for j, a := range r.Answers {
			if q, ok := byID[a.QuestionID]; ok {
				if a.Question == "" {
					a.Question = q.Text
				}
				if a.Category == "" {
					a.Category = q.Category
				}
				if a.QuestionType == "" {
					a.QuestionType = q.Type
				}
			}
			if r.IsAnonymous {
				a.IsAnonymous = true
			}
			answers[j] = a
		}
		r.Answers = answers
		out[idx] = r
	}
	return out, generated
}
