package application

import (
	"errors"

	"capitals/internal/domain"
)

// ClassificationToolName is the structured-output function the model must call.
const ClassificationToolName = "classify_capital_query"

// ClassificationInstruction is the system instruction sent with every
// classification request.
const ClassificationInstruction = `You classify a single user utterance for a service that only answers "what is the capital of X" for sovereign countries and U.S. states.

Return exactly one classification through the provided schema:
- query_type COUNTRY: the user asks for the capital of a sovereign country.
- query_type STATE: the user asks for the capital of a U.S. state.
- query_type AMBIGUOUS: the user asks for a capital and the place name is both a country and a U.S. state (for example "Georgia") with nothing in the utterance that picks one.
- query_type OUT_OF_SCOPE: anything else, including capitals of cities, provinces or fictional places you do not recognize as a country or U.S. state.

entity is the place name exactly as the user said it, without surrounding words. Leave entity empty for OUT_OF_SCOPE.
confidence is a number between 0 and 1.
Never answer the question yourself.`

// ErrInvalidReply is wrapped by LanguageModel implementations when the
// provider answered but the reply could not be decoded.
var ErrInvalidReply = errors.New("invalid model reply")

// QueryTypeValues lists the wire values of domain.QueryType.
var QueryTypeValues = []string{
	string(domain.QueryTypeCountry),
	string(domain.QueryTypeState),
	string(domain.QueryTypeAmbiguous),
	string(domain.QueryTypeOutOfScope),
}

// ClassificationSchema is the JSON Schema of ModelReply.
func ClassificationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query_type": map[string]any{
				"type":        "string",
				"enum":        QueryTypeValues,
				"description": "Kind of capital query",
			},
			"entity": map[string]any{
				"type":        "string",
				"description": "Place name span from the utterance, empty when OUT_OF_SCOPE",
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
		},
		"required":             []string{"query_type", "entity", "confidence"},
		"additionalProperties": false,
	}
}

// ModelReply is the structured reply expected from a LanguageModel.
type ModelReply struct {
	QueryType  string  `json:"query_type" validate:"required,oneof=COUNTRY STATE AMBIGUOUS OUT_OF_SCOPE"`
	Entity     string  `json:"entity" validate:"required_unless=QueryType OUT_OF_SCOPE"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}
