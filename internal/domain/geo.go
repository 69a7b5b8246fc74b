package domain

import "fmt"

type Category string

const (
	CategoryCountry Category = "country"
	CategoryState   Category = "state"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryCountry, CategoryState:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown category: %q", s)
	}
}

// QueryType maps a category onto the classification it answers.
func (c Category) QueryType() QueryType {
	if c == CategoryState {
		return QueryTypeState
	}
	return QueryTypeCountry
}

// Label is the spoken form used in clarifying prompts.
func (c Category) Label() string {
	if c == CategoryState {
		return "U.S. state"
	}
	return "country"
}

// GeoEntity is a gazetteer record. It is never mutated after the gazetteer is built.
type GeoEntity struct {
	Name     string
	Capital  string
	Category Category
	Aliases  []string
}
