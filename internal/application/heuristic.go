package application

import (
	"strings"

	"capitals/internal/domain"
	"capitals/internal/normalize"
)

const heuristicConfidence = 0.5

var capitalKeywords = map[string]bool{
	"capital":  true,
	"capitals": true,
	"capitol":  true,
}

// Unmatched words that pick one side of a country/state name collision.
var categoryHints = map[string]domain.Category{
	"state":   domain.CategoryState,
	"states":  domain.CategoryState,
	"country": domain.CategoryCountry,
	"nation":  domain.CategoryCountry,
}

const unitedStatesKey = "united states"

// match is one gazetteer hit covering fields[start:end].
type match struct {
	entities   []domain.GeoEntity
	start, end int
}

// ClassifyHeuristic classifies without the language model. It only
// recognizes utterances that ask for a capital and name exactly one gazetteer
// entry verbatim; everything else is OUT_OF_SCOPE with zero confidence.
//
// The entity is looked for after the keyword ("capital of Ohio"). Before the
// keyword only the possessive form counts ("Ohio's capital").
func ClassifyHeuristic(index EntityIndex, utterance string) domain.Classification {
	outOfScope := domain.Classification{
		QueryType: domain.QueryTypeOutOfScope,
		Source:    domain.SourceHeuristic,
	}

	fields := strings.Fields(utterance)
	keyword := -1
	for i, f := range fields {
		if capitalKeywords[normalize.Normalize(f)] {
			keyword = i
			break
		}
	}
	if keyword < 0 {
		return outOfScope
	}

	maxWords := index.MaxWords()
	entities, ok := afterKeyword(index, fields[keyword+1:], maxWords)
	if !ok {
		return outOfScope
	}
	if len(entities) == 0 {
		entities = possessive(index, fields[:keyword], maxWords)
	}
	if len(entities) == 0 {
		return outOfScope
	}

	entity := entities[0].Name
	cls := domain.Classification{
		Entity:     &entity,
		Confidence: heuristicConfidence,
		Source:     domain.SourceHeuristic,
	}
	if len(entities) > 1 {
		cls.QueryType = domain.QueryTypeAmbiguous
	} else {
		cls.QueryType = entities[0].Category.QueryType()
	}
	return cls
}

// afterKeyword collects every match in fields and reduces them to one place.
// ok is false when more than one distinct place is named.
func afterKeyword(index EntityIndex, fields []string, maxWords int) ([]domain.GeoEntity, bool) {
	all := scan(index, fields, maxWords)

	var kept []match
	for _, m := range all {
		switch {
		case districtFollows(fields[m.end:]):
			// "Washington, D.C." names the federal district, not the state.
		case isCountryOnly(m.entities) && nextWordIs(fields, m.end, "state", "states"):
			// "US state Ohio": the country qualifies the state.
		default:
			kept = append(kept, m)
		}
	}

	if len(kept) > 1 && hasState(kept) {
		kept = dropUnitedStates(kept)
	}

	distinct := make(map[string]bool)
	for _, m := range kept {
		distinct[m.entities[0].Name] = true
	}
	if len(distinct) > 1 {
		return nil, false
	}
	if len(kept) == 0 {
		return nil, true
	}

	entities := kept[0].entities
	if len(entities) > 1 {
		if cat, ok := hint(fields, all); ok {
			for _, e := range entities {
				if e.Category == cat {
					return []domain.GeoEntity{e}, true
				}
			}
		}
	}
	return entities, true
}

// possessive looks for "X's capital": a phrase ending right before the
// keyword whose last word is possessive. Bare state codes are not expanded
// here so "OK so what's the capital" stays out of scope.
func possessive(index EntityIndex, fields []string, maxWords int) []domain.GeoEntity {
	if len(fields) == 0 {
		return nil
	}
	last := fields[len(fields)-1]
	if !strings.HasSuffix(last, "'s") && !strings.HasSuffix(last, "’s") {
		return nil
	}

	for n := min(maxWords, len(fields)); n >= 1; n-- {
		phrase := fields[len(fields)-n:]
		if n == 1 && normalize.IsStateCode(phrase[0]) {
			continue
		}
		if matches := index.LookupAny(strings.Join(phrase, " ")); len(matches) > 0 {
			return matches
		}
	}
	return nil
}

// scan finds non-overlapping matches left to right, trying the longest phrase
// at each position first so "new mexico" wins over "mexico".
func scan(index EntityIndex, fields []string, maxWords int) []match {
	var found []match
	for i := 0; i < len(fields); {
		advanced := false
		for n := min(maxWords, len(fields)-i); n >= 1; n-- {
			if matches := index.LookupAny(strings.Join(fields[i:i+n], " ")); len(matches) > 0 {
				found = append(found, match{entities: matches, start: i, end: i + n})
				i += n
				advanced = true
				break
			}
		}
		if !advanced {
			i++
		}
	}
	return found
}

// hint returns the category named by a word outside every match, such as
// "state" in "the state of Georgia". Conflicting hints cancel out.
func hint(fields []string, matches []match) (domain.Category, bool) {
	covered := make([]bool, len(fields))
	for _, m := range matches {
		for i := m.start; i < m.end; i++ {
			covered[i] = true
		}
	}

	found := make(map[domain.Category]bool)
	for i, f := range fields {
		if covered[i] {
			continue
		}
		if cat, ok := categoryHints[normalize.Normalize(f)]; ok {
			found[cat] = true
		}
	}
	if len(found) != 1 {
		return "", false
	}
	for cat := range found {
		return cat, true
	}
	return "", false
}

func districtFollows(rest []string) bool {
	if len(rest) == 0 {
		return false
	}
	if strings.ReplaceAll(normalize.Normalize(rest[0]), ".", "") == "dc" {
		return true
	}
	return len(rest) >= 3 && normalize.Normalize(strings.Join(rest[:3], " ")) == "district of columbia"
}

func nextWordIs(fields []string, i int, words ...string) bool {
	if i >= len(fields) {
		return false
	}
	next := normalize.Normalize(fields[i])
	for _, w := range words {
		if next == w {
			return true
		}
	}
	return false
}

func isCountryOnly(entities []domain.GeoEntity) bool {
	return len(entities) == 1 && entities[0].Category == domain.CategoryCountry
}

func hasState(matches []match) bool {
	for _, m := range matches {
		for _, e := range m.entities {
			if e.Category == domain.CategoryState {
				return true
			}
		}
	}
	return false
}

// dropUnitedStates removes the country when it only qualifies a state, as in
// "Ohio, USA".
func dropUnitedStates(matches []match) []match {
	var out []match
	for _, m := range matches {
		if isCountryOnly(m.entities) && normalize.Normalize(m.entities[0].Name) == unitedStatesKey {
			continue
		}
		out = append(out, m)
	}
	return out
}
