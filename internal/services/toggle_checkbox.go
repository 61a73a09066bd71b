package services

import "sort"

type TogglePercentages struct {
	True  float64 `json:"true"`
	False float64 `json:"false"`
}

type ToggleQuestionStats struct {
	QuestionID     string            `json:"questionId,omitempty"`
	Question       string            `json:"question"`
	Category       string            `json:"category"`
	TrueCount      int               `json:"trueCount"`
	FalseCount     int               `json:"falseCount"`
	TotalResponses int               `json:"totalResponses"`
	Percentages    TogglePercentages `json:"percentages"`
	ResponderCount int               `json:"responderCount"`
}

type ToggleSummary struct {
	Count              int                   `json:"count"`
	Questions          []ToggleQuestionStats `json:"questions"`
	PositivePercentage float64               `json:"positivePercentage"`
}

type CheckboxOption struct {
	Option         string  `json:"option"`
	Count          int     `json:"count"`
	ResponderCount int     `json:"responderCount"`
	Percentage     float64 `json:"percentage"`
}

type CheckboxQuestionStats struct {
	QuestionID      string           `json:"questionId,omitempty"`
	Question        string           `json:"question"`
	Category        string           `json:"category"`
	TotalSelections int              `json:"totalSelections"`
	TotalResponders int              `json:"totalResponders"`
	Options         []CheckboxOption `json:"options"`
	TopChoices      []CheckboxOption `json:"topChoices"`
	LeastChoices    []CheckboxOption `json:"leastChoices"`
}

// RankedChoice is an option ranked across every checkbox question.
type RankedChoice struct {
	Question string `json:"question"`
	Category string `json:"category"`
	CheckboxOption
}

type CheckboxSummary struct {
	Count      int                     `json:"count"`
	Questions  []CheckboxQuestionStats `json:"questions"`
	TopChoices []RankedChoice          `json:"topChoices"`
}

type CategoryResponseRate struct {
	TotalQuestions    int `json:"totalQuestions"`
	TotalResponders   int `json:"totalResponders"`
	AverageResponders int `json:"averageResponders"`
}

type ToggleCheckboxReport struct {
	SID                   string                          `json:"sid"`
	TotalResponses        int                             `json:"totalResponses"`
	ToggleQuestions       ToggleSummary                   `json:"toggleQuestions"`
	CheckboxQuestions     CheckboxSummary                 `json:"checkboxQuestions"`
	CategoryResponseRates map[string]CategoryResponseRate `json:"categoryResponseRates"`
}

func (p Policy) ToggleCheckbox(t *Tally, base BaseAggregate) *ToggleCheckboxReport {
	out := &ToggleCheckboxReport{
		SID:                   t.SurveyID,
		TotalResponses:        base.TotalParticipants,
		ToggleQuestions:       ToggleSummary{Questions: []ToggleQuestionStats{}},
		CheckboxQuestions:     CheckboxSummary{Questions: []CheckboxQuestionStats{}, TopChoices: []RankedChoice{}},
		CategoryResponseRates: map[string]CategoryResponseRate{},
	}
	var truePercentages []float64
	var ranked []RankedChoice
	for _, qt := range t.Questions {
		var responders int
		switch st := qt.Stats.(type) {
		case *ToggleStats:
			if st.True+st.False == 0 {
				continue
			}
			row := toggleRow(qt.QuestionRef, st)
			out.ToggleQuestions.Questions = append(out.ToggleQuestions.Questions, row)
			truePercentages = append(truePercentages, row.Percentages.True)
			responders = row.ResponderCount
		case *CheckboxStats:
			if !st.answered() {
				continue
			}
			row := p.checkboxRow(qt.QuestionRef, st)
			out.CheckboxQuestions.Questions = append(out.CheckboxQuestions.Questions, row)
			for _, o := range row.Options {
				ranked = append(ranked, RankedChoice{Question: row.Question, Category: row.Category, CheckboxOption: o})
			}
			responders = row.TotalResponders
		default:
			continue
		}
		rate := out.CategoryResponseRates[qt.Category]
		rate.TotalQuestions++
		rate.TotalResponders += responders
		out.CategoryResponseRates[qt.Category] = rate
	}

	out.ToggleQuestions.Count = len(out.ToggleQuestions.Questions)
	out.ToggleQuestions.PositivePercentage = round(mean(truePercentages), 1)
	out.CheckboxQuestions.Count = len(out.CheckboxQuestions.Questions)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	out.CheckboxQuestions.TopChoices = append(out.CheckboxQuestions.TopChoices, ranked[:min(p.ChoiceCount, len(ranked))]...)

	for cat, rate := range out.CategoryResponseRates {
		rate.AverageResponders = int(round(float64(rate.TotalResponders)/float64(rate.TotalQuestions), 0))
		out.CategoryResponseRates[cat] = rate
	}
	return out
}

func toggleRow(ref QuestionRef, st *ToggleStats) ToggleQuestionStats {
	total := st.True + st.False
	return ToggleQuestionStats{
		QuestionID:     ref.ID,
		Question:       ref.Text,
		Category:       ref.Category,
		TrueCount:      st.True,
		FalseCount:     st.False,
		TotalResponses: total,
		Percentages: TogglePercentages{
			True:  percent(st.True, total, 1),
			False: percent(st.False, total, 1),
		},
		ResponderCount: st.Responders.Len(),
	}
}

func (p Policy) checkboxRow(ref QuestionRef, st *CheckboxStats) CheckboxQuestionStats {
	totalResponders := st.QuestionResponders().Len()
	row := CheckboxQuestionStats{
		QuestionID:      ref.ID,
		Question:        ref.Text,
		Category:        ref.Category,
		TotalResponders: totalResponders,
		Options:         make([]CheckboxOption, 0, len(st.Options)),
	}
	for _, opt := range st.Options {
		responders := st.Responders[opt].Len()
		row.TotalSelections += st.Selections[opt]
		row.Options = append(row.Options, CheckboxOption{
			Option:         opt,
			Count:          st.Selections[opt],
			ResponderCount: responders,
			Percentage:     percent(responders, totalResponders, 1),
		})
	}
	sort.SliceStable(row.Options, func(i, j int) bool { return row.Options[i].Count > row.Options[j].Count })

	n := min(p.ChoiceCount, len(row.Options))
	row.TopChoices = append([]CheckboxOption{}, row.Options[:n]...)
	row.LeastChoices = make([]CheckboxOption, 0, n)
	for i := len(row.Options) - 1; i >= len(row.Options)-n; i-- {
		row.LeastChoices = append(row.LeastChoices, row.Options[i])
	}
	return row
}
