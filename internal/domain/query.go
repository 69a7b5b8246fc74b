package domain

type QueryType string

const (
	QueryTypeCountry    QueryType = "COUNTRY"
	QueryTypeState      QueryType = "STATE"
	QueryTypeAmbiguous  QueryType = "AMBIGUOUS"
	QueryTypeOutOfScope QueryType = "OUT_OF_SCOPE"
)

// Category returns the gazetteer category for single-category query types.
func (q QueryType) Category() (Category, bool) {
	switch q {
	case QueryTypeCountry:
		return CategoryCountry, true
	case QueryTypeState:
		return CategoryState, true
	default:
		return "", false
	}
}

func (q QueryType) Valid() bool {
	switch q {
	case QueryTypeCountry, QueryTypeState, QueryTypeAmbiguous, QueryTypeOutOfScope:
		return true
	default:
		return false
	}
}

type FailureReason string

const (
	ReasonNone            FailureReason = ""
	ReasonOutOfScope      FailureReason = "OUT_OF_SCOPE"
	ReasonUnknownEntity   FailureReason = "UNKNOWN_ENTITY"
	ReasonAmbiguousEntity FailureReason = "AMBIGUOUS_ENTITY"
)

// ClassificationSource tells which branch produced a classification.
type ClassificationSource string

const (
	SourceModel     ClassificationSource = "model"
	SourceHeuristic ClassificationSource = "heuristic"
)

// FallbackCause records why the model branch was not used. It is internal
// bookkeeping for logs and metrics and never reaches the caller.
type FallbackCause string

const (
	FallbackNone         FallbackCause = ""
	FallbackUnavailable  FallbackCause = "unavailable"
	FallbackTimeout      FallbackCause = "timeout"
	FallbackModelError   FallbackCause = "model_error"
	FallbackInvalidReply FallbackCause = "invalid_reply"
)

type Classification struct {
	QueryType  QueryType
	Entity     *string
	Confidence float64
	Source     ClassificationSource
	Fallback   FallbackCause
}

// Candidate is one side of a cross-category name collision.
type Candidate struct {
	Name     string
	Capital  string
	Category Category
}

type Resolution struct {
	Success    bool
	QueryType  QueryType
	Entity     *string
	Capital    *string
	Reason     FailureReason
	Candidates []Candidate
}
