package service

import (
	"sort"
	"strconv"

	"portal-compare/internal/comparison/domain/model"
)

const unlabeled = "(unlabeled)"

// AssociationDiffer compares association types between one object pair.
type AssociationDiffer struct{}

// NewAssociationDiffer creates an AssociationDiffer.
func NewAssociationDiffer() *AssociationDiffer {
	return &AssociationDiffer{}
}

type associationSlot struct {
	display string
	a, b    *model.AssociationType
}

// DiffAssociations compares the types registered for (from, to) in portal A
// with those of the counterpart pair in portal B. mapping translates portal A
// object keys to portal B keys; unmapped keys are used as is. Built-in types
// match by exact label, custom types by normalized label.
func (d *AssociationDiffer) DiffAssociations(from, to string, indexA, indexB model.AssociationIndex, mapping map[string]string) model.ComparisonResult {
	fromB, toB := translate(from, mapping), translate(to, mapping)

	slots := make(map[string]*associationSlot)
	var order []string
	place := func(types []model.AssociationType, sideA bool) {
		sorted := append([]model.AssociationType(nil), types...)
		model.SortAssociations(sorted)
		seen := make(map[string]int)
		for i := range sorted {
			t := sorted[i]
			key := matchKey(t)
			n := seen[key]
			seen[key] = n + 1
			if n > 0 {
				key += "#" + strconv.Itoa(n+1)
			}
			slot, ok := slots[key]
			if !ok {
				slot = &associationSlot{display: displayLabel(t.Label, n)}
				slots[key] = slot
				order = append(order, key)
			}
			if sideA {
				slot.a = &t
			} else {
				slot.b = &t
			}
		}
	}
	place(indexA.Lookup(from, to), true)
	place(indexB.Lookup(fromB, toB), false)

	sort.SliceStable(order, func(i, j int) bool {
		di, dj := slots[order[i]].display, slots[order[j]].display
		if di != dj {
			return di < dj
		}
		return order[i] < order[j]
	})

	result := model.ComparisonResult{
		Kind:     model.ResultKindAssociations,
		Subject:  model.AssociationPairKey(from, to),
		SubjectA: model.AssociationPairKey(from, to),
		SubjectB: model.AssociationPairKey(fromB, toB),
	}

	for _, key := range order {
		slot := slots[key]
		path := "associations." + slot.display
		switch {
		case slot.a != nil && slot.b != nil:
			entries := []model.DiffEntry{
				scalarEntry(path+".label", slot.a.Label, slot.b.Label),
				scalarEntry(path+".category", string(slot.a.Category), string(slot.b.Category)),
			}
			result.Entries = append(result.Entries, entries...)
			result.Items = append(result.Items, model.ItemSummary{Name: slot.display, Path: path, Status: itemStatus(entries)})
		case slot.a != nil:
			result.Entries = append(result.Entries, model.DiffEntry{FieldPath: path, Status: model.StatusOnlyInA, ValueA: *slot.a})
			result.Items = append(result.Items, model.ItemSummary{Name: slot.display, Path: path, Status: model.StatusOnlyInA})
		default:
			result.Entries = append(result.Entries, model.DiffEntry{FieldPath: path, Status: model.StatusOnlyInB, ValueB: *slot.b})
			result.Items = append(result.Items, model.ItemSummary{Name: slot.display, Path: path, Status: model.StatusOnlyInB})
		}
	}

	result.Summarize()
	return result
}

func matchKey(t model.AssociationType) string {
	if t.Category.IsCustom() {
		return "custom:" + Normalize(t.Label)
	}
	return "builtin:" + t.Label
}

func displayLabel(label string, n int) string {
	if label == "" {
		label = unlabeled
	}
	if n > 0 {
		label += " #" + strconv.Itoa(n+1)
	}
	return label
}

func translate(key string, mapping map[string]string) string {
	if mapped, ok := mapping[key]; ok && mapped != "" {
		return mapped
	}
	return key
}
