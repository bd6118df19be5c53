package model

import "sort"

// AssociationCategory tells built-in association types from custom ones.
type AssociationCategory string

const (
	AssociationCategoryBuiltIn    AssociationCategory = "HUBSPOT_DEFINED"
	AssociationCategoryUser       AssociationCategory = "USER_DEFINED"
	AssociationCategoryIntegrator AssociationCategory = "INTEGRATOR_DEFINED"
)

// IsCustom reports whether c was defined by a user or an integration.
func (c AssociationCategory) IsCustom() bool {
	return c == AssociationCategoryUser || c == AssociationCategoryIntegrator
}

// AssociationType is one relationship kind between two object types.
// TypeID is portal-local and never used for matching.
type AssociationType struct {
	FromObject string              `json:"from_object"`
	ToObject   string              `json:"to_object"`
	Label      string              `json:"label"`
	Category   AssociationCategory `json:"category"`
	TypeID     int                 `json:"type_id"`
}

// AssociationIndex groups the association types of one portal by object pair.
type AssociationIndex map[string][]AssociationType

// AssociationPairKey is the index key of a (from, to) pair.
func AssociationPairKey(from, to string) string {
	return from + ":" + to
}

// Put installs the types for one pair, replacing what was there.
func (idx AssociationIndex) Put(from, to string, types []AssociationType) {
	idx[AssociationPairKey(from, to)] = types
}

// Lookup returns the types for one pair.
func (idx AssociationIndex) Lookup(from, to string) []AssociationType {
	return idx[AssociationPairKey(from, to)]
}

// SortAssociations orders types by label then type id.
func SortAssociations(types []AssociationType) {
	sort.SliceStable(types, func(i, j int) bool {
		if types[i].Label != types[j].Label {
			return types[i].Label < types[j].Label
		}
		return types[i].TypeID < types[j].TypeID
	})
}
