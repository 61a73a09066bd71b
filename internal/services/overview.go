package services

import "github.com/soaringjerry/pulse/internal/models"

type TypeShare struct {
	Type       models.QuestionType `json:"type"`
	Count      int                 `json:"count"`
	Percentage float64             `json:"percentage"`
}

type OverviewReport struct {
	SID                   string              `json:"sid"`
	Title                 string              `json:"title"`
	Description           string              `json:"description"`
	TotalResponses        int                 `json:"totalResponses"`
	TotalSkipped          int                 `json:"totalSkipped"`
	QuestionAnalytics     []QuestionAnalytics `json:"questionAnalytics"`
	OverallAverage        float64             `json:"overallAverage"`
	CompletionRate        float64             `json:"completionRate"`
	QuestionTypeBreakdown []TypeShare         `json:"questionTypeBreakdown"`
}

func (p Policy) Overview(t *Tally, base BaseAggregate) *OverviewReport {
	averages := make([]float64, 0, len(base.Questions))
	for _, q := range base.Questions {
		if q.QuestionType.ScoreBased() {
			averages = append(averages, q.AverageScore)
		}
	}
	return &OverviewReport{
		SID:                   t.SurveyID,
		Title:                 t.Title,
		Description:           t.Description,
		TotalResponses:        base.TotalParticipants,
		TotalSkipped:          base.TotalSkipped,
		QuestionAnalytics:     base.Questions,
		OverallAverage:        round(mean(averages), 2),
		CompletionRate:        completionRate(base.TotalSkipped, t.TotalQuestions(), base.TotalParticipants),
		QuestionTypeBreakdown: typeBreakdown(t),
	}
}

func completionRate(skipped, questions, participants int) float64 {
	slots := questions * participants
	if slots == 0 {
		return 0
	}
	rate := round(100-float64(skipped)/float64(slots)*100, 0)
	return max(0, min(100, rate))
}

// typeBreakdown counts question types in definition order, falling back to
// observed questions when the survey defines none.
func typeBreakdown(t *Tally) []TypeShare {
	total := t.TotalQuestions()
	counts := map[models.QuestionType]int{}
	order := make([]models.QuestionType, 0, 7)
	for _, qt := range t.Questions {
		if t.DefinedQuestions > 0 && !qt.Defined {
			continue
		}
		if _, seen := counts[qt.Type]; !seen {
			order = append(order, qt.Type)
		}
		counts[qt.Type]++
	}
	out := make([]TypeShare, 0, len(order))
	for _, typ := range order {
		out = append(out, TypeShare{Type: typ, Count: counts[typ], Percentage: percent(counts[typ], total, 0)})
	}
	return out
}
