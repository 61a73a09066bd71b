package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/soaringjerry/pulse/internal/api"
	"github.com/soaringjerry/pulse/internal/models"
)

const (
	surveysCollection   = "surveys"
	responsesCollection = "survey_responses"
)

// MongoStore keeps one document per survey definition and one append-only
// document per response set, both keyed by survey id.
type MongoStore struct {
	surveys   *mongo.Collection
	responses *mongo.Collection
}

// ConnectMongo connects and pings the deployment at uri.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		surveys:   db.Collection(surveysCollection),
		responses: db.Collection(responsesCollection),
	}
}

func (s *MongoStore) PutSurvey(ctx context.Context, def *models.SurveyDefinition) error {
	if def == nil || strings.TrimSpace(def.ID) == "" {
		return errors.New("survey id required")
	}
	doc := *def
	doc.Questions = nonNilQuestions(def.Questions)
	_, err := s.surveys.ReplaceOne(ctx, bson.M{"_id": def.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert survey %s: %w", def.ID, err)
	}
	return nil
}

func (s *MongoStore) AppendResponses(ctx context.Context, surveyID, workspace string, rs []models.EmployeeResponse) error {
	if strings.TrimSpace(surveyID) == "" {
		return errors.New("survey id required")
	}
	if rs == nil {
		rs = []models.EmployeeResponse{}
	}
	update := bson.M{
		"$push":        bson.M{"responses": bson.M{"$each": rs}},
		"$setOnInsert": bson.M{"workspace": workspace},
	}
	if _, err := s.responses.UpdateOne(ctx, bson.M{"_id": surveyID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("append responses to %s: %w", surveyID, err)
	}
	return nil
}

func (s *MongoStore) GetSurveyDefinition(ctx context.Context, surveyID string) (*models.SurveyDefinition, error) {
	var def models.SurveyDefinition
	err := s.surveys.FindOne(ctx, bson.M{"_id": surveyID}).Decode(&def)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find survey %s: %w", surveyID, err)
	}
	return &def, nil
}

// GetResponseSet returns an empty set for a defined survey without responses.
func (s *MongoStore) GetResponseSet(ctx context.Context, surveyID string) (*models.SurveyResponseSet, error) {
	var set models.SurveyResponseSet
	err := s.responses.FindOne(ctx, bson.M{"_id": surveyID}).Decode(&set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		def, derr := s.GetSurveyDefinition(ctx, surveyID)
		if derr != nil {
			return nil, derr
		}
		return &models.SurveyResponseSet{SurveyID: surveyID, Workspace: def.Workspace, Responses: []models.EmployeeResponse{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find responses of %s: %w", surveyID, err)
	}
	for i := range set.Responses {
		answers := set.Responses[i].Answers
		for j := range answers {
			answers[j].Answer = normalizeBSON(answers[j].Answer)
		}
	}
	return &set, nil
}

func (s *MongoStore) ListSurveys(ctx context.Context) ([]*models.SurveyDefinition, error) {
	cur, err := s.surveys.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	out := []*models.SurveyDefinition{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode surveys: %w", err)
	}
	return out, nil
}

// normalizeBSON turns driver container types into plain Go values so answers
// decoded from MongoDB look like answers decoded from JSON.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case primitive.Decimal128:
		f, err := decimalToFloat(t)
		if err != nil {
			return t.String()
		}
		return f
	}
	return v
}

func decimalToFloat(d primitive.Decimal128) (float64, error) {
	var f float64
	_, err := fmt.Sscan(d.String(), &f)
	return f, err
}

var _ api.Store = (*MongoStore)(nil)
