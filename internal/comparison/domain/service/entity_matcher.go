package service

import (
	"sort"

	"portal-compare/internal/comparison/domain/model"
)

// AutoMatchConfidence is the confidence of an exact normalized-name match.
const AutoMatchConfidence = 1.0

// EntityMatcher pairs custom objects across portals by normalized name.
// Platform ids are never compared.
type EntityMatcher struct{}

// NewEntityMatcher creates an EntityMatcher.
func NewEntityMatcher() *EntityMatcher {
	return &EntityMatcher{}
}

// AutoMatch proposes one portal B object for each portal A custom object whose
// normalized name matches exactly. When a name repeats on either side the
// candidates are consumed in key order, so every key is used at most once.
func (m *EntityMatcher) AutoMatch(schemasA, schemasB []model.ObjectSchema) []model.Match {
	customA := sortedCustom(schemasA)
	customB := sortedCustom(schemasB)

	candidates := make(map[string][]model.ObjectSchema, len(customB))
	for _, b := range customB {
		n := Normalize(b.Name)
		if n == "" {
			continue
		}
		candidates[n] = append(candidates[n], b)
	}

	var matches []model.Match
	for _, a := range customA {
		n := Normalize(a.Name)
		queue := candidates[n]
		if n == "" || len(queue) == 0 {
			continue
		}
		b := queue[0]
		candidates[n] = queue[1:]
		matches = append(matches, model.Match{
			KeyA:       a.Key(),
			KeyB:       b.Key(),
			NameA:      a.Name,
			NameB:      b.Name,
			Confidence: AutoMatchConfidence,
		})
	}
	return matches
}

// Unmatched lists the custom objects on each side that the mapping does not
// cover yet.
func (m *EntityMatcher) Unmatched(schemasA, schemasB []model.ObjectSchema, mapping map[string]model.MappingEntry) (onlyA, onlyB []model.ObjectSchema) {
	mappedB := make(map[string]struct{}, len(mapping))
	for _, entry := range mapping {
		mappedB[model.CanonicalObjectKey(entry.KeyB)] = struct{}{}
	}

	for _, a := range sortedCustom(schemasA) {
		if _, ok := mapping[model.CanonicalObjectKey(a.Key())]; !ok {
			onlyA = append(onlyA, a)
		}
	}
	for _, b := range sortedCustom(schemasB) {
		if _, ok := mappedB[model.CanonicalObjectKey(b.Key())]; !ok {
			onlyB = append(onlyB, b)
		}
	}
	return onlyA, onlyB
}

func sortedCustom(schemas []model.ObjectSchema) []model.ObjectSchema {
	out := model.CustomSchemas(schemas)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key() < out[j].Key()
	})
	return out
}
