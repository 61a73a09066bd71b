package services

import (
	"math"
	"strconv"

	"github.com/soaringjerry/pulse/internal/models"
)

// Distribution maps each score of the rating domain (as a string key) to its count.
type Distribution map[string]int

// QuestionAnalytics is the Base Aggregator row of a score-based question.
type QuestionAnalytics struct {
	QuestionID   string              `json:"questionId,omitempty"`
	Question     string              `json:"question"`
	Category     string              `json:"category"`
	QuestionType models.QuestionType `json:"questionType"`
	AverageScore float64             `json:"averageScore"`
	Distribution Distribution        `json:"distribution"`
	TotalAnswers int                 `json:"totalAnswers"`
}

// BaseAggregate is the shared input of the overview, category and score reporters.
type BaseAggregate struct {
	Questions         []QuestionAnalytics
	TotalParticipants int
	TotalSkipped      int
}

// Aggregate builds per-question distributions and weighted averages.
// Score-based questions without any eligible answer are omitted.
func (p Policy) Aggregate(t *Tally) BaseAggregate {
	out := BaseAggregate{
		Questions:         make([]QuestionAnalytics, 0, len(t.Questions)),
		TotalParticipants: t.TotalParticipants,
		TotalSkipped:      t.TotalSkipped,
	}
	for _, qt := range t.Questions {
		st, ok := qt.Stats.(*ScoreStats)
		if !ok {
			continue
		}
		row, ok := p.scoreRow(qt.QuestionRef, st)
		if !ok {
			continue
		}
		out.Questions = append(out.Questions, row)
	}
	return out
}

func (p Policy) scoreRow(ref QuestionRef, st *ScoreStats) (QuestionAnalytics, bool) {
	dist := make(Distribution, p.ScoreMax-p.ScoreMin+1)
	total, weighted := 0, 0
	for score := p.ScoreMin; score <= p.ScoreMax; score++ {
		c := st.Counts[score]
		dist[strconv.Itoa(score)] = c
		total += c
		weighted += score * c
	}
	if total == 0 {
		return QuestionAnalytics{}, false
	}
	return QuestionAnalytics{
		QuestionID:   ref.ID,
		Question:     ref.Text,
		Category:     ref.Category,
		QuestionType: ref.Type,
		AverageScore: round(float64(weighted)/float64(total), 2),
		Distribution: dist,
		TotalAnswers: total,
	}, true
}

// round rounds half away from zero to the given number of decimal places.
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// percent returns part/whole*100 rounded to places, or 0 when whole is 0.
func percent(part, whole int, places int) float64 {
	if whole == 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, places)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
