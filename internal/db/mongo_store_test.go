package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/soaringjerry/pulse/internal/models"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get survey", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "pulse.surveys", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "S1"},
			{Key: "title", Value: "Pulse"},
			{Key: "questions", Value: bson.A{
				bson.D{{Key: "id", Value: "q1"}, {Key: "text", Value: "Mood"}, {Key: "category", Value: "Wellbeing"}, {Key: "type", Value: "emoji-scale"}},
			}},
		}))

		def, err := NewMongoStore(mt.DB).GetSurveyDefinition(context.Background(), "S1")
		require.NoError(mt, err)
		assert.Equal(mt, "Pulse", def.Title)
		require.Len(mt, def.Questions, 1)
		assert.Equal(mt, models.QuestionEmojiScale, def.Questions[0].Type)
	})

	mt.Run("survey not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pulse.surveys", mtest.FirstBatch))

		_, err := NewMongoStore(mt.DB).GetSurveyDefinition(context.Background(), "missing")
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("response set normalizes answers", func(mt *mtest.T) {
		at := time.Date(2025, 9, 18, 9, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "pulse.survey_responses", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "S1"},
			{Key: "workspace", Value: "W1"},
			{Key: "responses", Value: bson.A{
				bson.D{
					{Key: "id", Value: "r1"},
					{Key: "respondentId", Value: "u1"},
					{Key: "submittedAt", Value: primitive.NewDateTimeFromTime(at)},
					{Key: "answers", Value: bson.A{
						bson.D{{Key: "questionId", Value: "q1"}, {Key: "category", Value: "Benefits"}, {Key: "questionType", Value: "checkbox-group"}, {Key: "answer", Value: bson.A{"Gym", "Lunch"}}},
						bson.D{{Key: "questionId", Value: "q2"}, {Key: "category", Value: "Wellbeing"}, {Key: "questionType", Value: "slider"}, {Key: "answer", Value: int32(4)}},
					}},
				},
			}},
		}))

		set, err := NewMongoStore(mt.DB).GetResponseSet(context.Background(), "S1")
		require.NoError(mt, err)
		assert.Equal(mt, "W1", set.Workspace)
		require.Len(mt, set.Responses, 1)
		r := set.Responses[0]
		assert.True(mt, at.Equal(r.SubmittedAt))
		assert.Equal(mt, []any{"Gym", "Lunch"}, r.Answers[0].Answer)
		assert.Equal(mt, int32(4), r.Answers[1].Answer)
	})

	mt.Run("append responses", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := NewMongoStore(mt.DB).AppendResponses(context.Background(), "S1", "W1", []models.EmployeeResponse{{ID: "r9"}})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
	})
}

func TestNormalizeBSON(t *testing.T) {
	got := normalizeBSON(primitive.A{"a", primitive.D{{Key: "k", Value: primitive.A{int32(1)}}}})
	assert.Equal(t, []any{"a", map[string]any{"k": []any{int32(1)}}}, got)

	dec, err := primitive.ParseDecimal128("4.5")
	require.NoError(t, err)
	assert.Equal(t, 4.5, normalizeBSON(dec))
	assert.Equal(t, "plain", normalizeBSON("plain"))
}
