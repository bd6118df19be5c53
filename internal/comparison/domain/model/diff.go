package model

import "strings"

// DiffStatus is the four-way outcome of comparing one fact.
type DiffStatus string

const (
	StatusIdentical DiffStatus = "identical"
	StatusDifferent DiffStatus = "different"
	StatusOnlyInA   DiffStatus = "only_in_a"
	StatusOnlyInB   DiffStatus = "only_in_b"
)

// Valid reports whether s is one of the four statuses.
func (s DiffStatus) Valid() bool {
	switch s {
	case StatusIdentical, StatusDifferent, StatusOnlyInA, StatusOnlyInB:
		return true
	}
	return false
}

// Mirror swaps the one-sided statuses.
func (s DiffStatus) Mirror() DiffStatus {
	switch s {
	case StatusOnlyInA:
		return StatusOnlyInB
	case StatusOnlyInB:
		return StatusOnlyInA
	}
	return s
}

// DiffEntry is one compared fact.
type DiffEntry struct {
	FieldPath string      `json:"field_path"`
	Status    DiffStatus  `json:"status"`
	ValueA    interface{} `json:"value_a"`
	ValueB    interface{} `json:"value_b"`
	Detail    string      `json:"detail,omitempty"`
}

// StatusCounts aggregates entries or items per status.
type StatusCounts struct {
	Identical int `json:"identical"`
	Different int `json:"different"`
	OnlyInA   int `json:"only_in_a"`
	OnlyInB   int `json:"only_in_b"`
}

// Add counts one occurrence of status.
func (c *StatusCounts) Add(status DiffStatus) {
	switch status {
	case StatusIdentical:
		c.Identical++
	case StatusDifferent:
		c.Different++
	case StatusOnlyInA:
		c.OnlyInA++
	case StatusOnlyInB:
		c.OnlyInB++
	}
}

// Total returns the number of counted occurrences.
func (c StatusCounts) Total() int {
	return c.Identical + c.Different + c.OnlyInA + c.OnlyInB
}

// Changed returns the number of non-identical occurrences.
func (c StatusCounts) Changed() int {
	return c.Different + c.OnlyInA + c.OnlyInB
}

// ResultKind names what a ComparisonResult compares.
type ResultKind string

const (
	ResultKindProperty     ResultKind = "property"
	ResultKindObjectType   ResultKind = "object_type"
	ResultKindCustomObject ResultKind = "custom_object"
	ResultKindAssociations ResultKind = "associations"
)

// ItemSummary is the overall status of one compared item (a property or an
// association type) inside a result. Path is the field path prefix shared by
// the item's entries; empty means every entry of the result.
type ItemSummary struct {
	Name   string     `json:"name"`
	Path   string     `json:"path,omitempty"`
	Status DiffStatus `json:"status"`
}

// Owns reports whether entry belongs to the item.
func (it ItemSummary) Owns(entry DiffEntry) bool {
	if it.Path == "" {
		return true
	}
	return entry.FieldPath == it.Path || strings.HasPrefix(entry.FieldPath, it.Path+".")
}

// ComparisonResult is the ordered diff of one compared subject.
type ComparisonResult struct {
	Kind        ResultKind    `json:"kind"`
	Subject     string        `json:"subject"`
	SubjectA    string        `json:"subject_a,omitempty"`
	SubjectB    string        `json:"subject_b,omitempty"`
	PortalAName string        `json:"portal_a_name,omitempty"`
	PortalBName string        `json:"portal_b_name,omitempty"`
	Status      DiffStatus    `json:"status"`
	Entries     []DiffEntry   `json:"entries"`
	Items       []ItemSummary `json:"items,omitempty"`
	Counts      StatusCounts  `json:"counts"`
	ItemCounts  StatusCounts  `json:"item_counts"`
}

// Summarize recomputes counts and the overall status from Entries and Items.
// The overall status is different iff any entry is not identical.
func (r *ComparisonResult) Summarize() {
	r.Counts = StatusCounts{}
	for _, e := range r.Entries {
		r.Counts.Add(e.Status)
	}
	r.ItemCounts = StatusCounts{}
	for _, it := range r.Items {
		r.ItemCounts.Add(it.Status)
	}
	if r.Entries == nil {
		r.Entries = []DiffEntry{}
	}
	r.Status = StatusIdentical
	if r.Counts.Changed() > 0 {
		r.Status = StatusDifferent
	}
}

// WithPortals labels the result with the display names of both portals.
func (r *ComparisonResult) WithPortals(a, b PortalRef) *ComparisonResult {
	r.PortalAName = a.Name
	r.PortalBName = b.Name
	return r
}
