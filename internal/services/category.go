package services

import "github.com/soaringjerry/pulse/internal/models"

type ScoredQuestion struct {
	Question     string              `json:"question"`
	Score        float64             `json:"score"`
	QuestionType models.QuestionType `json:"questionType"`
}

type CategoryAnalytics struct {
	Category               string         `json:"category"`
	AverageScore           float64        `json:"averageScore"`
	QuestionCount          int            `json:"questionCount"`
	TotalResponses         int            `json:"totalResponses"`
	HighestScoringQuestion ScoredQuestion `json:"highestScoringQuestion"`
	LowestScoringQuestion  ScoredQuestion `json:"lowestScoringQuestion"`
	QuestionTypes          []TypeShare    `json:"questionTypes"`
	Reliability            Reliability    `json:"reliability"`
}

type CategoryReport struct {
	*OverviewReport
	CategoryAnalytics []CategoryAnalytics `json:"categoryAnalytics"`
}

type categoryAcc struct {
	out      CategoryAnalytics
	averages []float64
	types    map[models.QuestionType]int
	order    []models.QuestionType
	scores   []*ScoreStats
}

// Categories rolls score-based question rows up per category, in first-seen order.
func (p Policy) Categories(t *Tally, base BaseAggregate) []CategoryAnalytics {
	byRef := scoreStatsByRow(t)
	accs := map[string]*categoryAcc{}
	var order []string
	for _, q := range base.Questions {
		if !q.QuestionType.ScoreBased() {
			continue
		}
		acc, ok := accs[q.Category]
		if !ok {
			acc = &categoryAcc{types: map[models.QuestionType]int{}}
			acc.out.Category = q.Category
			acc.out.HighestScoringQuestion = scored(q)
			acc.out.LowestScoringQuestion = scored(q)
			accs[q.Category] = acc
			order = append(order, q.Category)
		}
		acc.out.QuestionCount++
		acc.averages = append(acc.averages, q.AverageScore)
		for _, c := range q.Distribution {
			acc.out.TotalResponses += c
		}
		if q.AverageScore > acc.out.HighestScoringQuestion.Score {
			acc.out.HighestScoringQuestion = scored(q)
		}
		if q.AverageScore < acc.out.LowestScoringQuestion.Score {
			acc.out.LowestScoringQuestion = scored(q)
		}
		if _, seen := acc.types[q.QuestionType]; !seen {
			acc.order = append(acc.order, q.QuestionType)
		}
		acc.types[q.QuestionType]++
		if st, ok := byRef[rowKey(q)]; ok {
			acc.scores = append(acc.scores, st)
		}
	}

	out := make([]CategoryAnalytics, 0, len(order))
	for _, name := range order {
		acc := accs[name]
		acc.out.AverageScore = round(mean(acc.averages), 2)
		acc.out.QuestionTypes = make([]TypeShare, 0, len(acc.order))
		for _, typ := range acc.order {
			acc.out.QuestionTypes = append(acc.out.QuestionTypes, TypeShare{
				Type:       typ,
				Count:      acc.types[typ],
				Percentage: percent(acc.types[typ], acc.out.QuestionCount, 0),
			})
		}
		acc.out.Reliability = reliability(acc.scores)
		out = append(out, acc.out)
	}
	return out
}

func scored(q QuestionAnalytics) ScoredQuestion {
	return ScoredQuestion{Question: q.Question, Score: q.AverageScore, QuestionType: q.QuestionType}
}

func rowKey(q QuestionAnalytics) QuestionRef {
	return QuestionRef{ID: q.QuestionID, Text: q.Question, Category: q.Category, Type: q.QuestionType}
}

func scoreStatsByRow(t *Tally) map[QuestionRef]*ScoreStats {
	out := make(map[QuestionRef]*ScoreStats, len(t.Questions))
	for _, qt := range t.Questions {
		if st, ok := qt.Stats.(*ScoreStats); ok {
			out[qt.QuestionRef] = st
		}
	}
	return out
}
