package services

import (
	"strings"
	"time"

	"github.com/soaringjerry/pulse/internal/models"
)

type StatsKind string

const (
	KindScore    StatsKind = "score"
	KindToggle   StatsKind = "toggle"
	KindCheckbox StatsKind = "checkbox"
	KindText     StatsKind = "text"
)

// QuestionStats is the per-question accumulator. Exactly one implementation
// exists per family of question types; see newStats.
type QuestionStats interface {
	Kind() StatsKind
	isQuestionStats()
}

// ScoreStats accumulates coerced integer scores of a score-based question.
type ScoreStats struct {
	Counts map[int]int
	// ByRespondent keeps the latest score per respondent for reliability estimates.
	ByRespondent map[string]int
}

// ToggleStats accumulates yes/no answers.
type ToggleStats struct {
	True       int
	False      int
	Responders ResponderSet
}

// CheckboxStats accumulates multi-select answers per option.
type CheckboxStats struct {
	// Options is the declared choice order followed by undeclared choices in first-seen order.
	Options    []string
	Selections map[string]int
	Responders map[string]ResponderSet
}

// TextStats collects open-ended answers.
type TextStats struct {
	Entries []FeedbackEntry
}

func (*ScoreStats) Kind() StatsKind    { return KindScore }
func (*ToggleStats) Kind() StatsKind   { return KindToggle }
func (*CheckboxStats) Kind() StatsKind { return KindCheckbox }
func (*TextStats) Kind() StatsKind     { return KindText }

func (*ScoreStats) isQuestionStats()    {}
func (*ToggleStats) isQuestionStats()   {}
func (*CheckboxStats) isQuestionStats() {}
func (*TextStats) isQuestionStats()     {}

func newStats(t models.QuestionType, options []string) QuestionStats {
	switch {
	case t.ScoreBased():
		return &ScoreStats{Counts: map[int]int{}, ByRespondent: map[string]int{}}
	case t == models.QuestionToggle:
		return &ToggleStats{Responders: ResponderSet{}}
	case t == models.QuestionCheckboxGroup:
		cs := &CheckboxStats{Selections: map[string]int{}, Responders: map[string]ResponderSet{}}
		for _, o := range options {
			cs.addOption(strings.TrimSpace(o))
		}
		return cs
	default:
		return &TextStats{}
	}
}

func (c *CheckboxStats) addOption(opt string) {
	if opt == "" {
		return
	}
	if _, ok := c.Responders[opt]; ok {
		return
	}
	c.Options = append(c.Options, opt)
	c.Responders[opt] = ResponderSet{}
}

func (c *CheckboxStats) selectOption(opt, respondent string) {
	c.addOption(opt)
	c.Selections[opt]++
	c.Responders[opt].Add(respondent)
}

func (c *CheckboxStats) answered() bool {
	for _, n := range c.Selections {
		if n > 0 {
			return true
		}
	}
	return false
}

// QuestionResponders is the union of every option's responder set.
func (c *CheckboxStats) QuestionResponders() ResponderSet {
	all := ResponderSet{}
	for _, set := range c.Responders {
		all.Union(set)
	}
	return all
}

// QuestionRef identifies a question in every report row.
type QuestionRef struct {
	ID       string
	Text     string
	Category string
	Type     models.QuestionType
}

type QuestionTally struct {
	QuestionRef
	Stats QuestionStats
	// Defined is set for questions listed in the survey definition.
	Defined bool
}

// Tally is the single-pass, type-dispatched view of a response set that
// every reporter reads from.
type Tally struct {
	SurveyID          string
	Title             string
	Description       string
	Questions         []*QuestionTally
	DefinedQuestions  int
	TotalParticipants int
	TotalSkipped      int
}

// TotalQuestions is the denominator used for completion and type shares.
func (t *Tally) TotalQuestions() int {
	if t.DefinedQuestions > 0 {
		return t.DefinedQuestions
	}
	return len(t.Questions)
}

// MalformedAnswer describes an answer record dropped from aggregation.
type MalformedAnswer struct {
	SurveyID   string
	ResponseID string
	QuestionID string
	Reason     string
}

const (
	reasonMissingCategory = "missing_category"
	reasonUnknownType     = "unknown_type"
	reasonMissingAnswer   = "missing_answer"
	reasonUncoercible     = "uncoercible"
	reasonOutOfDomain     = "out_of_domain"
)

type questionKey struct {
	ref      string
	category string
	qtype    models.QuestionType
}

type tallyBuilder struct {
	policy Policy
	tally  *Tally
	index  map[questionKey]*QuestionTally
	report func(MalformedAnswer)
}

// BuildTally walks every answer of set once and dispatches it by question type.
// Malformed records are passed to report and otherwise ignored.
func (p Policy) BuildTally(def *models.SurveyDefinition, set *models.SurveyResponseSet, report func(MalformedAnswer)) *Tally {
	if report == nil {
		report = func(MalformedAnswer) {}
	}
	b := &tallyBuilder{
		policy: p,
		tally:  &Tally{},
		index:  map[questionKey]*QuestionTally{},
		report: report,
	}
	if def != nil {
		b.tally.SurveyID = def.ID
		b.tally.Title = def.Title
		b.tally.Description = def.Description
		b.tally.DefinedQuestions = len(def.Questions)
		for _, q := range def.Questions {
			if strings.TrimSpace(q.Category) == "" || !q.Type.Valid() {
				continue
			}
			b.register(q.ID, q.Text, q.Category, q.Type, q.Options).Defined = true
		}
	}
	if set == nil {
		return b.tally
	}
	if b.tally.SurveyID == "" {
		b.tally.SurveyID = set.SurveyID
	}
	b.tally.TotalParticipants = len(set.Responses)
	for i := range set.Responses {
		b.addResponse(i, &set.Responses[i])
	}
	return b.tally
}

func (b *tallyBuilder) register(id, text, category string, t models.QuestionType, options []string) *QuestionTally {
	ref := id
	if ref == "" {
		ref = "text:" + text
	}
	key := questionKey{ref: ref, category: category, qtype: t}
	if qt, ok := b.index[key]; ok {
		return qt
	}
	qt := &QuestionTally{
		QuestionRef: QuestionRef{ID: id, Text: text, Category: category, Type: t},
		Stats:       newStats(t, options),
	}
	b.index[key] = qt
	b.tally.Questions = append(b.tally.Questions, qt)
	return qt
}

func (b *tallyBuilder) addResponse(index int, resp *models.EmployeeResponse) {
	for j := range resp.Answers {
		a := &resp.Answers[j]
		wellFormed := strings.TrimSpace(a.Category) != "" && a.QuestionType.Valid()
		if a.Skipped {
			b.tally.TotalSkipped++
			if wellFormed {
				b.register(a.QuestionID, a.Question, a.Category, a.QuestionType, nil)
			}
			continue
		}
		switch {
		case strings.TrimSpace(a.Category) == "":
			b.malformed(resp, a, reasonMissingCategory)
			continue
		case !a.QuestionType.Valid():
			b.malformed(resp, a, reasonUnknownType)
			continue
		case a.Answer == nil:
			b.malformed(resp, a, reasonMissingAnswer)
			continue
		}
		qt := b.register(a.QuestionID, a.Question, a.Category, a.QuestionType, nil)
		if reason := b.dispatch(qt, index, resp, a); reason != "" {
			b.malformed(resp, a, reason)
		}
	}
}

// dispatch feeds one valid answer into its question's accumulator and
// returns a malformed reason when the value does not fit the question type.
func (b *tallyBuilder) dispatch(qt *QuestionTally, index int, resp *models.EmployeeResponse, a *models.AnswerRecord) string {
	p := b.policy
	who := func() string { return p.respondentKey(b.tally.SurveyID, index, resp, a.IsAnonymous) }
	switch st := qt.Stats.(type) {
	case *ScoreStats:
		score, ok := p.toScore(a.Answer)
		if !ok {
			return reasonUncoercible
		}
		if !p.inDomain(score) {
			return reasonOutOfDomain
		}
		st.Counts[score]++
		st.ByRespondent[who()] = score
	case *ToggleStats:
		v, ok := p.toToggle(a.Answer)
		if !ok {
			return reasonUncoercible
		}
		if v {
			st.True++
		} else {
			st.False++
		}
		st.Responders.Add(who())
	case *CheckboxStats:
		opts, ok := toOptions(a.Answer)
		if !ok {
			return reasonUncoercible
		}
		id := who()
		for _, o := range opts {
			if o = strings.TrimSpace(o); o != "" {
				st.selectOption(o, id)
			}
		}
	case *TextStats:
		text, ok := a.Answer.(string)
		if !ok {
			return reasonUncoercible
		}
		st.Entries = append(st.Entries, FeedbackEntry{
			QuestionID:   qt.ID,
			Question:     qt.Text,
			Category:     qt.Category,
			Answer:       text,
			Comment:      a.Comment,
			SubmittedAt:  submittedAt(resp),
			RespondentID: p.displayRespondent(resp, a),
		})
	}
	return ""
}

func (b *tallyBuilder) malformed(resp *models.EmployeeResponse, a *models.AnswerRecord, reason string) {
	b.report(MalformedAnswer{
		SurveyID:   b.tally.SurveyID,
		ResponseID: resp.ID,
		QuestionID: a.QuestionID,
		Reason:     reason,
	})
}

func submittedAt(resp *models.EmployeeResponse) time.Time {
	return resp.SubmittedAt.UTC()
}
