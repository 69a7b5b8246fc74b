// Package gazetteer holds the immutable index of countries and U.S. states.
//
// A Gazetteer is built once and only read afterwards, so any number of
// goroutines may call its methods without synchronization.
package gazetteer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"capitals/internal/domain"
	"capitals/internal/normalize"
)

var (
	// ErrDataLoad wraps every failure to build a gazetteer. It is fatal at startup.
	ErrDataLoad      = errors.New("gazetteer data load error")
	ErrDuplicateName = errors.New("duplicate name")
	ErrAliasConflict = errors.New("alias conflict")
	ErrMissingField  = errors.New("missing required field")
)

var categories = []domain.Category{domain.CategoryCountry, domain.CategoryState}

// Record is one source row before it is indexed.
type Record struct {
	Name    string   `yaml:"name" validate:"required"`
	Capital string   `yaml:"capital" validate:"required"`
	Aliases []string `yaml:"aliases" validate:"dive,required"`
}

// Dataset is a category-tagged collection of records.
type Dataset struct {
	Category domain.Category `yaml:"category" validate:"required,oneof=country state"`
	Entities []Record        `yaml:"entities" validate:"required,min=1"`
}

type Gazetteer struct {
	entities map[domain.Category][]domain.GeoEntity
	index    map[domain.Category]map[string]int
	maxWords int
}

// Build indexes the datasets. Both categories must be present; several
// datasets of one category are merged.
func Build(datasets ...Dataset) (*Gazetteer, error) {
	validate := validator.New()

	grouped := make(map[domain.Category][]Record, len(categories))
	for _, ds := range datasets {
		if err := validate.Struct(ds); err != nil {
			return nil, fmt.Errorf("%w: dataset %q: %w: %v", ErrDataLoad, ds.Category, ErrMissingField, err)
		}
		for i, rec := range ds.Entities {
			rec = trimRecord(rec)
			if err := validate.Struct(rec); err != nil {
				return nil, fmt.Errorf("%w: %s entry %d (%q): %w: %v", ErrDataLoad, ds.Category, i, rec.Name, ErrMissingField, err)
			}
			grouped[ds.Category] = append(grouped[ds.Category], rec)
		}
	}

	g := &Gazetteer{
		entities: make(map[domain.Category][]domain.GeoEntity, len(categories)),
		index:    make(map[domain.Category]map[string]int, len(categories)),
	}

	for _, cat := range categories {
		records := grouped[cat]
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: no %s entries: %w", ErrDataLoad, cat, ErrMissingField)
		}
		if err := g.indexCategory(cat, records); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDataLoad, err)
		}
	}

	return g, nil
}

func (g *Gazetteer) indexCategory(cat domain.Category, records []Record) error {
	slices.SortStableFunc(records, func(a, b Record) int {
		return strings.Compare(a.Name, b.Name)
	})

	entities := make([]domain.GeoEntity, 0, len(records))
	index := make(map[string]int, len(records))
	names := make(map[string]bool, len(records))

	for i, rec := range records {
		key := normalize.Normalize(rec.Name)
		if key == "" {
			return fmt.Errorf("%s %q normalizes to an empty key: %w", cat, rec.Name, ErrMissingField)
		}
		if _, dup := index[key]; dup {
			return fmt.Errorf("%s %q: %w", cat, rec.Name, ErrDuplicateName)
		}
		index[key] = i
		names[key] = true
		g.trackWords(key)

		entities = append(entities, domain.GeoEntity{
			Name:     rec.Name,
			Capital:  rec.Capital,
			Category: cat,
		})
	}

	for i, rec := range records {
		own := normalize.Normalize(rec.Name)
		for _, alias := range rec.Aliases {
			key := normalize.Normalize(alias)
			if key == "" || key == own {
				continue
			}
			if names[key] {
				return fmt.Errorf("%s %q alias %q is another entry's name: %w", cat, rec.Name, alias, ErrAliasConflict)
			}
			if owner, taken := index[key]; taken && owner != i {
				return fmt.Errorf("%s %q alias %q already belongs to %q: %w", cat, rec.Name, alias, records[owner].Name, ErrAliasConflict)
			}
			if _, taken := index[key]; taken {
				continue
			}
			index[key] = i
			g.trackWords(key)
			entities[i].Aliases = append(entities[i].Aliases, alias)
		}
	}

	g.entities[cat] = entities
	g.index[cat] = index
	return nil
}

func (g *Gazetteer) trackWords(key string) {
	if n := len(strings.Fields(key)); n > g.maxWords {
		g.maxWords = n
	}
}

// Lookup finds name in one category by exact normalized equality against
// canonical names and aliases.
func (g *Gazetteer) Lookup(name string, category domain.Category) (domain.GeoEntity, bool) {
	return g.lookupKey(normalize.Normalize(name), category)
}

// LookupAny searches both categories, countries first. The result has zero,
// one or two entries.
func (g *Gazetteer) LookupAny(name string) []domain.GeoEntity {
	key := normalize.Normalize(name)
	var matches []domain.GeoEntity
	for _, cat := range categories {
		if e, ok := g.lookupKey(key, cat); ok {
			matches = append(matches, e)
		}
	}
	return matches
}

func (g *Gazetteer) lookupKey(key string, category domain.Category) (domain.GeoEntity, bool) {
	if key == "" {
		return domain.GeoEntity{}, false
	}
	i, ok := g.index[category][key]
	if !ok {
		return domain.GeoEntity{}, false
	}
	return clone(g.entities[category][i]), true
}

// Entities returns the entries of a category sorted by name.
func (g *Gazetteer) Entities(category domain.Category) []domain.GeoEntity {
	src := g.entities[category]
	out := make([]domain.GeoEntity, len(src))
	for i, e := range src {
		out[i] = clone(e)
	}
	return out
}

func (g *Gazetteer) Names(category domain.Category) []string {
	src := g.entities[category]
	names := make([]string, len(src))
	for i, e := range src {
		names[i] = e.Name
	}
	return names
}

func (g *Gazetteer) Count(category domain.Category) int {
	return len(g.entities[category])
}

// MaxWords is the word count of the longest indexed key.
func (g *Gazetteer) MaxWords() int {
	return g.maxWords
}

func clone(e domain.GeoEntity) domain.GeoEntity {
	e.Aliases = slices.Clone(e.Aliases)
	return e
}

func trimRecord(rec Record) Record {
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Capital = strings.TrimSpace(rec.Capital)
	aliases := make([]string, 0, len(rec.Aliases))
	for _, a := range rec.Aliases {
		aliases = append(aliases, strings.TrimSpace(a))
	}
	rec.Aliases = aliases
	return rec
}
