package application

import (
	"strings"

	"capitals/internal/domain"
	"capitals/internal/normalize"
)

// Resolver maps a classification onto the gazetteer. It never picks between
// the two sides of a genuine cross-category collision.
type Resolver struct {
	index EntityIndex
}

func NewResolver(index EntityIndex) *Resolver {
	return &Resolver{index: index}
}

func (r *Resolver) Resolve(cls domain.Classification) domain.Resolution {
	if cls.QueryType == domain.QueryTypeOutOfScope || cls.Entity == nil {
		return outOfScope()
	}

	raw := strings.TrimSpace(*cls.Entity)
	key := normalize.Normalize(raw)
	if key == "" {
		return outOfScope()
	}

	if category, ok := cls.QueryType.Category(); ok {
		entity, found := r.index.Lookup(key, category)
		if !found {
			return unknown(cls.QueryType, raw)
		}
		return resolved(entity)
	}

	if cls.QueryType != domain.QueryTypeAmbiguous {
		return outOfScope()
	}

	matches := r.index.LookupAny(key)
	switch len(matches) {
	case 0:
		return unknown(cls.QueryType, raw)
	case 1:
		return resolved(matches[0])
	default:
		candidates := make([]domain.Candidate, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, domain.Candidate{
				Name:     m.Name,
				Capital:  m.Capital,
				Category: m.Category,
			})
		}
		return domain.Resolution{
			QueryType:  domain.QueryTypeAmbiguous,
			Entity:     domain.StringPtr(matches[0].Name),
			Reason:     domain.ReasonAmbiguousEntity,
			Candidates: candidates,
		}
	}
}

func resolved(e domain.GeoEntity) domain.Resolution {
	return domain.Resolution{
		Success:   true,
		QueryType: e.Category.QueryType(),
		Entity:    domain.StringPtr(e.Name),
		Capital:   domain.StringPtr(e.Capital),
	}
}

func unknown(qt domain.QueryType, entity string) domain.Resolution {
	return domain.Resolution{
		QueryType: qt,
		Entity:    domain.StringPtr(entity),
		Reason:    domain.ReasonUnknownEntity,
	}
}

func outOfScope() domain.Resolution {
	return domain.Resolution{
		QueryType: domain.QueryTypeOutOfScope,
		Reason:    domain.ReasonOutOfScope,
	}
}
