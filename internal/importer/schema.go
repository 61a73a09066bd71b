package importer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// fixtureSchema describes the accepted fixture document. Answers are left
// untyped; coercion and malformed-answer accounting happen in the engine.
const fixtureSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["surveys"],
  "properties": {
    "surveys": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "questions"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "workspace": {"type": "string"},
          "title": {"type": "string"},
          "description": {"type": "string"},
          "questions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "category", "type"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "text": {"type": "string"},
                "category": {"type": "string", "minLength": 1},
                "type": {"enum": ["emoji-scale", "slider", "star-rating", "radio-group", "toggle", "checkbox-group", "open-ended"]},
                "options": {"type": "array", "items": {"type": "string"}}
              }
            }
          },
          "responses": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["answers"],
              "properties": {
                "id": {"type": "string"},
                "respondentId": {"type": "string"},
                "submittedAt": {"type": "string", "format": "date-time"},
                "isAnonymous": {"type": "boolean"},
                "answers": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["questionId"],
                    "properties": {
                      "questionId": {"type": "string", "minLength": 1},
                      "question": {"type": "string"},
                      "category": {"type": "string"},
                      "questionType": {"type": "string"},
                      "comment": {"type": "string"},
                      "skipped": {"type": "boolean"},
                      "isAnonymous": {"type": "boolean"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(fixtureSchema)

// ValidationError lists every schema violation found in a fixture.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fixture invalid: %s", strings.Join(e.Problems, "; "))
}

func validate(doc []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate fixture: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}
	return &ValidationError{Problems: problems}
}
