package services

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/soaringjerry/pulse/internal/models"
)

const pseudoIDLength = 16

// ResponderSet is a deduplicated set of respondent identifiers.
type ResponderSet map[string]struct{}

func (s ResponderSet) Add(id string) { s[id] = struct{}{} }

func (s ResponderSet) Len() int { return len(s) }

// Union adds every member of other to s.
func (s ResponderSet) Union(other ResponderSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// respondentKey returns the identifier used for responder counting.
// Anonymous responses (or responses without an identifier) get a stable
// pseudo-identifier derived from the survey and the response, so distinct
// anonymous participants are not merged.
func (p Policy) respondentKey(surveyID string, index int, resp *models.EmployeeResponse, answerAnonymous bool) string {
	anonymous := resp.IsAnonymous || answerAnonymous
	if anonymous && p.SharedAnonymousIdentity {
		return p.anonymousLabel()
	}
	if !anonymous && resp.RespondentID != "" {
		return resp.RespondentID
	}
	ref := resp.ID
	if ref == "" {
		ref = "#" + strconv.Itoa(index)
	}
	sum := blake2b.Sum256([]byte(surveyID + "/" + ref))
	return "anon-" + hex.EncodeToString(sum[:])[:pseudoIDLength]
}

// displayRespondent is the identifier shown in feedback listings.
func (p Policy) displayRespondent(resp *models.EmployeeResponse, answer *models.AnswerRecord) string {
	if resp.IsAnonymous || answer.IsAnonymous || resp.RespondentID == "" {
		return p.anonymousLabel()
	}
	return resp.RespondentID
}
