package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/pulse/internal/models"
)

func TestCategoriesRollUp(t *testing.T) {
	mood := question("q1", "Wellbeing", models.QuestionEmojiScale)
	sleep := question("q2", "Wellbeing", models.QuestionSlider)
	load := question("q3", "Work", models.QuestionStarRating)
	remote := question("q4", "Work", models.QuestionToggle)
	set := responses(
		response("u1", 0, answer(mood, 5), answer(sleep, 2), answer(load, 3), answer(remote, true)),
		response("u2", 1, answer(mood, 4), answer(sleep, 3), answer(load, 4)),
	)

	p := DefaultPolicy()
	tally := tallyOf(definition(mood, sleep, load, remote), set)
	cats := p.Categories(tally, p.Aggregate(tally))

	require.Len(t, cats, 2)
	wellbeing := cats[0]
	assert.Equal(t, "Wellbeing", wellbeing.Category)
	assert.Equal(t, 2, wellbeing.QuestionCount)
	assert.Equal(t, 4, wellbeing.TotalResponses)
	assert.Equal(t, 3.5, wellbeing.AverageScore)
	assert.Equal(t, ScoredQuestion{Question: "Q q1", Score: 4.5, QuestionType: models.QuestionEmojiScale}, wellbeing.HighestScoringQuestion)
	assert.Equal(t, ScoredQuestion{Question: "Q q2", Score: 2.5, QuestionType: models.QuestionSlider}, wellbeing.LowestScoringQuestion)
	assert.Equal(t, []TypeShare{
		{Type: models.QuestionEmojiScale, Count: 1, Percentage: 50},
		{Type: models.QuestionSlider, Count: 1, Percentage: 50},
	}, wellbeing.QuestionTypes)

	work := cats[1]
	assert.Equal(t, "Work", work.Category)
	assert.Equal(t, 1, work.QuestionCount)
	assert.Equal(t, 3.5, work.AverageScore)
	assert.Equal(t, work.HighestScoringQuestion, work.LowestScoringQuestion)
	assert.Equal(t, Reliability{}, work.Reliability)
}

func TestCategoriesTiesKeepFirstSeen(t *testing.T) {
	a := question("q1", "Team", models.QuestionSlider)
	b := question("q2", "Team", models.QuestionSlider)
	set := responses(response("u1", 0, answer(a, 3), answer(b, 3)))

	p := DefaultPolicy()
	tally := tallyOf(definition(a, b), set)
	cats := p.Categories(tally, p.Aggregate(tally))

	require.Len(t, cats, 1)
	assert.Equal(t, "Q q1", cats[0].HighestScoringQuestion.Question)
	assert.Equal(t, "Q q1", cats[0].LowestScoringQuestion.Question)
}

func TestCategoriesReliability(t *testing.T) {
	a := question("q1", "Team", models.QuestionSlider)
	b := question("q2", "Team", models.QuestionSlider)
	set := responses(
		response("u1", 0, answer(a, 1), answer(b, 1)),
		response("u2", 1, answer(a, 3), answer(b, 3)),
		response("u3", 2, answer(a, 5), answer(b, 5)),
		response("u4", 3, answer(a, 4)),
	)

	p := DefaultPolicy()
	tally := tallyOf(definition(a, b), set)
	cats := p.Categories(tally, p.Aggregate(tally))

	require.Len(t, cats, 1)
	assert.Equal(t, Reliability{Alpha: 1, N: 3}, cats[0].Reliability)
}

func TestCategoriesEmpty(t *testing.T) {
	p := DefaultPolicy()
	tally := tallyOf(definition(), responses())
	assert.Empty(t, p.Categories(tally, p.Aggregate(tally)))
}
