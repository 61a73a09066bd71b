package services

import "sort"

// Reliability is the internal consistency of a group of score-based questions.
type Reliability struct {
	Alpha float64 `json:"alpha"`
	N     int     `json:"n"`
}

// CronbachAlpha computes Cronbach's alpha for a matrix shaped [respondents][questions].
// Population variance (divide by N) is used throughout, which yields alpha=1.0
// for perfectly correlated questions. The result is clamped to [0, 1].
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}
	columns := make([][]float64, k)
	totals := make([]float64, n)
	for i, row := range matrix {
		if len(row) != k {
			return 0
		}
		for j, v := range row {
			columns[j] = append(columns[j], v)
			totals[i] += v
		}
	}
	totalVar := populationVariance(totals)
	if totalVar == 0 {
		return 0
	}
	var sumItemVars float64
	for _, col := range columns {
		sumItemVars += populationVariance(col)
	}
	kf := float64(k)
	alpha := (kf / (kf - 1)) * (1 - sumItemVars/totalVar)
	return max(0, min(1, alpha))
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// reliability builds the respondent matrix from respondents who answered every
// question and returns alpha rounded to three places.
func reliability(questions []*ScoreStats) Reliability {
	if len(questions) < 2 {
		return Reliability{}
	}
	respondents := make([]string, 0, len(questions[0].ByRespondent))
	for id := range questions[0].ByRespondent {
		respondents = append(respondents, id)
	}
	sort.Strings(respondents)
	matrix := make([][]float64, 0, len(respondents))
	for _, id := range respondents {
		row := make([]float64, 0, len(questions))
		complete := true
		for _, q := range questions {
			v, ok := q.ByRespondent[id]
			if !ok {
				complete = false
				break
			}
			row = append(row, float64(v))
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return Reliability{Alpha: round(CronbachAlpha(matrix), 3), N: len(matrix)}
}
