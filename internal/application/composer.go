package application

import (
	"fmt"
	"strings"

	"capitals/internal/domain"
)

// OutOfScopeMessage is spoken for every query that is not a country or
// U.S. state capital question.
const OutOfScopeMessage = "I can only answer questions about the capitals of countries and U.S. states."

// Compose renders a resolution. It is pure.
func Compose(res domain.Resolution) domain.Response {
	resp := domain.Response{
		Success:    res.Success,
		QueryType:  res.QueryType,
		Entity:     res.Entity,
		Capital:    res.Capital,
		Reason:     res.Reason,
		Candidates: res.Candidates,
	}

	entity := "that place"
	if res.Entity != nil {
		entity = *res.Entity
	}

	switch {
	case res.Success && res.Capital != nil && res.QueryType.Valid():
		resp.Text = sentence(fmt.Sprintf("The capital of %s is %s", entity, *res.Capital))
	case res.Reason == domain.ReasonUnknownEntity:
		resp.Text = fmt.Sprintf("I don't have information about %s.", entity)
	case res.Reason == domain.ReasonAmbiguousEntity && len(res.Candidates) >= 2:
		resp.Text = fmt.Sprintf("Did you mean the %s or the %s named %s?",
			res.Candidates[0].Category.Label(), res.Candidates[1].Category.Label(), entity)
	default:
		resp.Text = OutOfScopeMessage
		resp.Success = false
		resp.QueryType = domain.QueryTypeOutOfScope
		resp.Entity = nil
		resp.Capital = nil
		resp.Reason = domain.ReasonOutOfScope
		resp.Candidates = nil
	}

	return resp
}

// sentence ends s with a single period; "Washington, D.C." already has one.
func sentence(s string) string {
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}
