package application

import "capitals/internal/domain"

// EntityIndex is the read-only gazetteer view the engine depends on.
type EntityIndex interface {
	Lookup(name string, category domain.Category) (domain.GeoEntity, bool)
	LookupAny(name string) []domain.GeoEntity
	Names(category domain.Category) []string
	Count(category domain.Category) int
	MaxWords() int
}
