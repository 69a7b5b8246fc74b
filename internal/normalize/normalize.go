// Package normalize canonicalizes place names so that user input and
// gazetteer keys compare with plain string equality.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// abbreviations is matched against the input before case-folding, so the
// keys are case-sensitive: "IN" expands to indiana, the word "in" does not.
// Every value must already be in normalized form.
var abbreviations = map[string]string{
	"USA":    "united states",
	"U.S.A.": "united states",
	"U.S.A":  "united states",
	"US":     "united states",
	"U.S.":   "united states",
	"U.S":    "united states",
	"UK":     "united kingdom",
	"U.K.":   "united kingdom",
	"U.K":    "united kingdom",
	"UAE":    "united arab emirates",
	"DRC":    "democratic republic of the congo",
	"PRC":    "china",
	"ROK":    "south korea",
	"DPRK":   "north korea",
	"CAR":    "central african republic",
	"PNG":    "papua new guinea",
}

// usStateCodes holds the two-letter USPS codes.
var usStateCodes = map[string]string{
	"AL": "alabama", "AK": "alaska", "AZ": "arizona", "AR": "arkansas",
	"CA": "california", "CO": "colorado", "CT": "connecticut", "DE": "delaware",
	"FL": "florida", "GA": "georgia", "HI": "hawaii", "ID": "idaho",
	"IL": "illinois", "IN": "indiana", "IA": "iowa", "KS": "kansas",
	"KY": "kentucky", "LA": "louisiana", "ME": "maine", "MD": "maryland",
	"MA": "massachusetts", "MI": "michigan", "MN": "minnesota", "MS": "mississippi",
	"MO": "missouri", "MT": "montana", "NE": "nebraska", "NV": "nevada",
	"NH": "new hampshire", "NJ": "new jersey", "NM": "new mexico", "NY": "new york",
	"NC": "north carolina", "ND": "north dakota", "OH": "ohio", "OK": "oklahoma",
	"OR": "oregon", "PA": "pennsylvania", "RI": "rhode island", "SC": "south carolina",
	"SD": "south dakota", "TN": "tennessee", "TX": "texas", "UT": "utah",
	"VT": "vermont", "VA": "virginia", "WA": "washington", "WV": "west virginia",
	"WI": "wisconsin", "WY": "wyoming",
}

// Normalize returns the lookup key for raw. It is pure and idempotent.
func Normalize(raw string) string {
	s := stripArticle(collapse(strings.ToValidUTF8(raw, "\uFFFD")))
	if s == "" {
		return ""
	}

	if expanded, ok := expand(s); ok {
		return expanded
	}

	s = fold(s)

	for {
		before := s
		s = strings.TrimFunc(s, isTrimmable)
		s = strings.TrimSuffix(s, "'s")
		s = strings.TrimSuffix(s, "’s")
		s = strings.TrimPrefix(s, "the ")
		if s == before {
			break
		}
	}

	return collapse(s)
}

// IsStateCode reports whether raw is a bare two-letter USPS code such as
// "OH", ignoring surrounding punctuation.
func IsStateCode(raw string) bool {
	_, ok := usStateCodes[strings.TrimFunc(raw, isTrimmable)]
	return ok
}

func expand(s string) (string, bool) {
	if v, ok := lookupAbbreviation(s); ok {
		return v, true
	}
	trimmed := strings.TrimRightFunc(s, isTrimmable)
	if trimmed != s {
		if v, ok := lookupAbbreviation(trimmed); ok {
			return v, true
		}
	}
	return "", false
}

func lookupAbbreviation(s string) (string, bool) {
	if v, ok := abbreviations[s]; ok {
		return v, true
	}
	v, ok := usStateCodes[s]
	return v, ok
}

// fold case-folds before dropping combining marks; folding can itself emit
// marks (U+0130 folds to i + U+0307).
func fold(s string) string {
	// Transformers and casers keep state, so they are built per call.
	folded := cases.Fold().String(s)
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, folded)
	if err != nil {
		return folded
	}
	return stripped
}

func stripArticle(s string) string {
	for len(s) > 4 && strings.EqualFold(s[:4], "the ") {
		s = strings.TrimLeft(s[4:], " ")
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
