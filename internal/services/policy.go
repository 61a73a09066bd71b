package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidScoreDomain = errors.New("score domain must satisfy 0 <= min < max")
	ErrInvalidBands       = errors.New("band thresholds must be strictly increasing")
	ErrInvalidToggleCodes = errors.New("toggle true and false codes must differ")
	ErrInvalidRankSize    = errors.New("ranking sizes must be positive")
)

// Bands holds the lower bounds of the sentiment bands above veryNegative.
// A score below Negative is veryNegative; at or above VeryPositive it is veryPositive.
type Bands struct {
	Negative     float64 `mapstructure:"negative" json:"negative"`
	Neutral      float64 `mapstructure:"neutral" json:"neutral"`
	Positive     float64 `mapstructure:"positive" json:"positive"`
	VeryPositive float64 `mapstructure:"very_positive" json:"veryPositive"`
}

// Policy collects the rating-scale constants the reporters depend on.
type Policy struct {
	ScoreMin        int    `mapstructure:"score_min"`
	ScoreMax        int    `mapstructure:"score_max"`
	Bands           Bands  `mapstructure:"bands"`
	ToggleTrueCode  int    `mapstructure:"toggle_true_code"`
	ToggleFalseCode int    `mapstructure:"toggle_false_code"`
	ExtremeCount    int    `mapstructure:"extreme_count"`
	ChoiceCount     int    `mapstructure:"choice_count"`
	AnonymousLabel  string `mapstructure:"anonymous_label"`
	// SharedAnonymousIdentity collapses every anonymous respondent into one
	// identifier when counting responders.
	SharedAnonymousIdentity bool `mapstructure:"shared_anonymous_identity"`
}

func DefaultPolicy() Policy {
	return Policy{
		ScoreMin:        1,
		ScoreMax:        5,
		Bands:           Bands{Negative: 2, Neutral: 3, Positive: 4, VeryPositive: 4.5},
		ToggleTrueCode:  5,
		ToggleFalseCode: 0,
		ExtremeCount:    5,
		ChoiceCount:     3,
		AnonymousLabel:  "Anonymous",
	}
}

func (p Policy) Validate() error {
	if p.ScoreMin < 0 || p.ScoreMin >= p.ScoreMax {
		return fmt.Errorf("%w: got %d..%d", ErrInvalidScoreDomain, p.ScoreMin, p.ScoreMax)
	}
	b := p.Bands
	if !(b.Negative < b.Neutral && b.Neutral < b.Positive && b.Positive < b.VeryPositive) {
		return ErrInvalidBands
	}
	if p.ToggleTrueCode == p.ToggleFalseCode {
		return ErrInvalidToggleCodes
	}
	if p.ExtremeCount <= 0 || p.ChoiceCount <= 0 {
		return ErrInvalidRankSize
	}
	return nil
}

func (p Policy) inDomain(score int) bool {
	return score >= p.ScoreMin && score <= p.ScoreMax
}

func (p Policy) anonymousLabel() string {
	if p.AnonymousLabel == "" {
		return "Anonymous"
	}
	return p.AnonymousLabel
}
