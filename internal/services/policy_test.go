package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soaringjerry/pulse/internal/models"
)

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	cases := []struct {
		name   string
		mutate func(*Policy)
		want   error
	}{
		{"inverted domain", func(p *Policy) { p.ScoreMin, p.ScoreMax = 5, 1 }, ErrInvalidScoreDomain},
		{"negative min", func(p *Policy) { p.ScoreMin = -1 }, ErrInvalidScoreDomain},
		{"unordered bands", func(p *Policy) { p.Bands.Neutral = 1 }, ErrInvalidBands},
		{"same toggle codes", func(p *Policy) { p.ToggleFalseCode = p.ToggleTrueCode }, ErrInvalidToggleCodes},
		{"zero extremes", func(p *Policy) { p.ExtremeCount = 0 }, ErrInvalidRankSize},
		{"zero choices", func(p *Policy) { p.ChoiceCount = 0 }, ErrInvalidRankSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPolicy()
			tc.mutate(&p)
			assert.ErrorIs(t, p.Validate(), tc.want)
		})
	}
}

func TestCoercion(t *testing.T) {
	p := DefaultPolicy()

	for _, v := range []any{3, int32(3), int64(3), 3.99, float32(3.5), "3", " 3.2 ", json.Number("3")} {
		got, ok := p.toScore(v)
		assert.True(t, ok, "%#v", v)
		assert.Equal(t, 3, got, "%#v", v)
	}
	for _, v := range []any{"three", []string{"3"}, map[string]any{}} {
		_, ok := p.toScore(v)
		assert.False(t, ok, "%#v", v)
	}

	for v, want := range map[any]bool{true: true, false: false, 5: true, 0: false, "Yes": true, "no": false, "5": true} {
		got, ok := p.toToggle(v)
		assert.True(t, ok, "%#v", v)
		assert.Equal(t, want, got, "%#v", v)
	}
	_, ok := p.toToggle(2)
	assert.False(t, ok)

	opts, ok := toOptions([]any{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, opts)
	_, ok = toOptions([]any{"a", 1})
	assert.False(t, ok)
	opts, ok = toOptions("")
	assert.True(t, ok)
	assert.Empty(t, opts)
}

func TestRespondentKey(t *testing.T) {
	p := DefaultPolicy()
	named := &models.EmployeeResponse{ID: "r1", RespondentID: "u1"}
	anon := &models.EmployeeResponse{ID: "r2", RespondentID: "u2", IsAnonymous: true}
	missing := &models.EmployeeResponse{}

	assert.Equal(t, "u1", p.respondentKey("S1", 0, named, false))

	key := p.respondentKey("S1", 1, anon, false)
	assert.True(t, strings.HasPrefix(key, "anon-"))
	assert.Len(t, key, len("anon-")+pseudoIDLength)
	assert.NotContains(t, key, "u2")
	assert.Equal(t, key, p.respondentKey("S1", 1, anon, false))
	assert.NotEqual(t, key, p.respondentKey("S2", 1, anon, false))

	assert.NotEqual(t, p.respondentKey("S1", 0, missing, false), p.respondentKey("S1", 1, missing, false))
	assert.NotEqual(t, "u1", p.respondentKey("S1", 0, named, true))

	p.SharedAnonymousIdentity = true
	assert.Equal(t, "Anonymous", p.respondentKey("S1", 1, anon, false))
	assert.Equal(t, "u1", p.respondentKey("S1", 0, named, false))
}

func TestResponderSetUnion(t *testing.T) {
	a := ResponderSet{}
	a.Add("u1")
	a.Add("u1")
	b := ResponderSet{}
	b.Add("u1")
	b.Add("u2")
	a.Union(b)
	assert.Equal(t, 2, a.Len())
}
