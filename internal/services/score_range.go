package services

import (
	"sort"

	"github.com/soaringjerry/pulse/internal/models"
)

type RankedQuestion struct {
	QuestionID   string              `json:"questionId,omitempty"`
	Question     string              `json:"question"`
	Category     string              `json:"category"`
	QuestionType models.QuestionType `json:"questionType"`
	AverageScore float64             `json:"averageScore"`
}

type ScoreBand struct {
	Count     int              `json:"count"`
	Questions []RankedQuestion `json:"questions"`
}

type ScoreRanges struct {
	VeryNegative ScoreBand `json:"veryNegative"`
	Negative     ScoreBand `json:"negative"`
	Neutral      ScoreBand `json:"neutral"`
	Positive     ScoreBand `json:"positive"`
	VeryPositive ScoreBand `json:"veryPositive"`
}

type TypeAverage struct {
	QuestionType  models.QuestionType `json:"questionType"`
	AverageScore  float64             `json:"averageScore"`
	QuestionCount int                 `json:"questionCount"`
}

type ScoreReport struct {
	*OverviewReport
	ScoreRanges          ScoreRanges      `json:"scoreRanges"`
	QuestionTypeAverages []TypeAverage    `json:"questionTypeAverages"`
	MostPositive         []RankedQuestion `json:"mostPositive"`
	MostNegative         []RankedQuestion `json:"mostNegative"`
}

// ScoreSummary holds the score-range sections of a ScoreReport.
type ScoreSummary struct {
	Ranges       ScoreRanges
	TypeAverages []TypeAverage
	MostPositive []RankedQuestion
	MostNegative []RankedQuestion
}

func (p Policy) RankScores(base BaseAggregate) ScoreSummary {
	sorted := make([]RankedQuestion, 0, len(base.Questions))
	for _, q := range base.Questions {
		if !q.QuestionType.ScoreBased() {
			continue
		}
		sorted = append(sorted, RankedQuestion{
			QuestionID:   q.QuestionID,
			Question:     q.Question,
			Category:     q.Category,
			QuestionType: q.QuestionType,
			AverageScore: q.AverageScore,
		})
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AverageScore < sorted[j].AverageScore })

	out := ScoreSummary{Ranges: ScoreRanges{
		VeryNegative: ScoreBand{Questions: []RankedQuestion{}},
		Negative:     ScoreBand{Questions: []RankedQuestion{}},
		Neutral:      ScoreBand{Questions: []RankedQuestion{}},
		Positive:     ScoreBand{Questions: []RankedQuestion{}},
		VeryPositive: ScoreBand{Questions: []RankedQuestion{}},
	}}
	for _, q := range sorted {
		band := p.band(&out.Ranges, q.AverageScore)
		band.Count++
		band.Questions = append(band.Questions, q)
	}
	out.TypeAverages = typeAverages(sorted)

	n := min(p.ExtremeCount, len(sorted))
	out.MostNegative = append([]RankedQuestion{}, sorted[:n]...)
	out.MostPositive = make([]RankedQuestion, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		out.MostPositive = append(out.MostPositive, sorted[i])
	}
	return out
}

func (p Policy) band(r *ScoreRanges, score float64) *ScoreBand {
	switch {
	case score < p.Bands.Negative:
		return &r.VeryNegative
	case score < p.Bands.Neutral:
		return &r.Negative
	case score < p.Bands.Positive:
		return &r.Neutral
	case score < p.Bands.VeryPositive:
		return &r.Positive
	default:
		return &r.VeryPositive
	}
}

func typeAverages(rows []RankedQuestion) []TypeAverage {
	scores := map[models.QuestionType][]float64{}
	var order []models.QuestionType
	for _, q := range rows {
		if _, seen := scores[q.QuestionType]; !seen {
			order = append(order, q.QuestionType)
		}
		scores[q.QuestionType] = append(scores[q.QuestionType], q.AverageScore)
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]TypeAverage, 0, len(order))
	for _, typ := range order {
		out = append(out, TypeAverage{
			QuestionType:  typ,
			AverageScore:  round(mean(scores[typ]), 2),
			QuestionCount: len(scores[typ]),
		})
	}
	return out
}
