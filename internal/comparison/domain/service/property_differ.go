package service

import (
	"sort"

	"portal-compare/internal/comparison/domain/model"
)

// DetailUnknownRule marks rule entries whose kind is not enumerated.
const DetailUnknownRule = "unrecognized rule"

type scalarField struct {
	path  string
	value func(p model.PropertyDefinition) interface{}
}

// scalarFields is the fixed comparison order of property attributes.
var scalarFields = []scalarField{
	{"label", func(p model.PropertyDefinition) interface{} { return p.Label }},
	{"description", func(p model.PropertyDefinition) interface{} { return p.Description }},
	{"type", func(p model.PropertyDefinition) interface{} { return string(p.Type) }},
	{"field_type", func(p model.PropertyDefinition) interface{} { return string(p.FieldType) }},
	{"group_name", func(p model.PropertyDefinition) interface{} { return p.GroupName }},
	{"required", func(p model.PropertyDefinition) interface{} { return p.Required }},
	{"read_only", func(p model.PropertyDefinition) interface{} { return p.ReadOnly }},
	{"searchable_in_global_search", func(p model.PropertyDefinition) interface{} { return p.SearchableInGlobalSearch }},
	{"hidden", func(p model.PropertyDefinition) interface{} { return p.Hidden }},
	{"display_order", func(p model.PropertyDefinition) interface{} { return optionalInt(p.DisplayOrder) }},
	{"has_unique_value", func(p model.PropertyDefinition) interface{} { return p.HasUniqueValue }},
	{"calculated", func(p model.PropertyDefinition) interface{} { return p.Calculated }},
	{"external_options", func(p model.PropertyDefinition) interface{} { return p.ExternalOptions }},
	{"platform_defined", func(p model.PropertyDefinition) interface{} { return p.PlatformDefined }},
	{"show_currency_symbol", func(p model.PropertyDefinition) interface{} { return optionalBool(p.ShowCurrencySymbol) }},
}

// Unreported values compare as nil so that "missing" differs from a zero.
func optionalInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func optionalBool(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

const groupNameField = "group_name"

// PropertyDiffer compares property definitions field by field.
type PropertyDiffer struct{}

// NewPropertyDiffer creates a PropertyDiffer.
func NewPropertyDiffer() *PropertyDiffer {
	return &PropertyDiffer{}
}

// DiffProperty compares two definitions. With excludeGroup the group_name
// field is skipped, which is what cross-object comparisons want.
func (d *PropertyDiffer) DiffProperty(a, b model.PropertyDefinition, excludeGroup bool) model.ComparisonResult {
	entries := d.propertyEntries(a, b, excludeGroup, "")
	subject := a.Name
	if a.Name != b.Name {
		subject = a.Name + " / " + b.Name
	}
	result := model.ComparisonResult{
		Kind:     model.ResultKindProperty,
		Subject:  subject,
		SubjectA: a.Name,
		SubjectB: b.Name,
		Entries:  entries,
		Items:    []model.ItemSummary{{Name: subject, Status: itemStatus(entries)}},
	}
	result.Summarize()
	return result
}

// DiffPropertySet matches properties of two schemas by name. Properties
// present on one side only produce a single whole-property entry.
func (d *PropertyDiffer) DiffPropertySet(a, b model.ObjectSchema) model.ComparisonResult {
	propsA := indexProperties(a.Properties)
	propsB := indexProperties(b.Properties)

	result := model.ComparisonResult{
		Kind:     model.ResultKindObjectType,
		Subject:  a.Key(),
		SubjectA: a.Key(),
		SubjectB: b.Key(),
	}

	for _, name := range unionKeys(propsA, propsB) {
		pa, inA := propsA[name]
		pb, inB := propsB[name]
		switch {
		case inA && inB:
			entries := d.propertyEntries(pa, pb, false, name+".")
			result.Entries = append(result.Entries, entries...)
			result.Items = append(result.Items, model.ItemSummary{Name: name, Path: name, Status: itemStatus(entries)})
		case inA:
			result.Entries = append(result.Entries, model.DiffEntry{FieldPath: name, Status: model.StatusOnlyInA, ValueA: pa})
			result.Items = append(result.Items, model.ItemSummary{Name: name, Path: name, Status: model.StatusOnlyInA})
		default:
			result.Entries = append(result.Entries, model.DiffEntry{FieldPath: name, Status: model.StatusOnlyInB, ValueB: pb})
			result.Items = append(result.Items, model.ItemSummary{Name: name, Path: name, Status: model.StatusOnlyInB})
		}
	}

	result.Summarize()
	return result
}

func (d *PropertyDiffer) propertyEntries(a, b model.PropertyDefinition, excludeGroup bool, prefix string) []model.DiffEntry {
	entries := make([]model.DiffEntry, 0, len(scalarFields)+len(a.Options))

	for _, f := range scalarFields {
		if excludeGroup && f.path == groupNameField {
			continue
		}
		entries = append(entries, scalarEntry(prefix+f.path, f.value(a), f.value(b)))
	}

	entries = append(entries, d.optionEntries(a, b, prefix)...)
	entries = append(entries, d.ruleEntries(a.ValidationRules, b.ValidationRules, prefix)...)
	return entries
}

func (d *PropertyDiffer) optionEntries(a, b model.PropertyDefinition, prefix string) []model.DiffEntry {
	optsA := a.OptionsByValue()
	optsB := b.OptionsByValue()

	var entries []model.DiffEntry
	for _, value := range unionKeys(optsA, optsB) {
		path := prefix + "options." + value
		oa, inA := optsA[value]
		ob, inB := optsB[value]
		switch {
		case inA && inB:
			entries = append(entries, scalarEntry(path, oa.Label, ob.Label))
			if oa.Description != ob.Description {
				entries = append(entries, scalarEntry(path+".description", oa.Description, ob.Description))
			}
			if oa.Hidden != ob.Hidden {
				entries = append(entries, scalarEntry(path+".hidden", oa.Hidden, ob.Hidden))
			}
		case inA:
			entries = append(entries, model.DiffEntry{FieldPath: path, Status: model.StatusOnlyInA, ValueA: oa.Label})
		default:
			entries = append(entries, model.DiffEntry{FieldPath: path, Status: model.StatusOnlyInB, ValueB: ob.Label})
		}
	}
	return entries
}

func (d *PropertyDiffer) ruleEntries(rulesA, rulesB map[string]model.ValidationRule, prefix string) []model.DiffEntry {
	var entries []model.DiffEntry
	for _, name := range unionKeys(rulesA, rulesB) {
		path := prefix + "validation_rules." + name
		ra, inA := rulesA[name]
		rb, inB := rulesB[name]

		detail := ""
		if (inA && !ra.Kind.Known()) || (inB && !rb.Kind.Known()) {
			detail = DetailUnknownRule
		}

		switch {
		case inA && inB:
			keys := unionKeys(ra.Params, rb.Params)
			if len(keys) == 0 {
				entries = append(entries, model.DiffEntry{FieldPath: path, Status: model.StatusIdentical, ValueA: ra.Format(), ValueB: rb.Format(), Detail: detail})
				continue
			}
			for _, key := range keys {
				va, okA := ra.Params[key]
				vb, okB := rb.Params[key]
				entry := model.DiffEntry{FieldPath: path + "." + key, Detail: detail}
				switch {
				case okA && okB:
					entry.ValueA, entry.ValueB = va, vb
					entry.Status = model.StatusIdentical
					if va != vb {
						entry.Status = model.StatusDifferent
					}
				case okA:
					entry.ValueA, entry.Status = va, model.StatusOnlyInA
				default:
					entry.ValueB, entry.Status = vb, model.StatusOnlyInB
				}
				entries = append(entries, entry)
			}
		case inA:
			entries = append(entries, model.DiffEntry{FieldPath: path, Status: model.StatusOnlyInA, ValueA: ra.Format(), Detail: detail})
		default:
			entries = append(entries, model.DiffEntry{FieldPath: path, Status: model.StatusOnlyInB, ValueB: rb.Format(), Detail: detail})
		}
	}
	return entries
}

func scalarEntry(path string, a, b interface{}) model.DiffEntry {
	entry := model.DiffEntry{FieldPath: path, ValueA: a, ValueB: b, Status: model.StatusIdentical}
	if a != b {
		entry.Status = model.StatusDifferent
		if sa, ok := a.(string); ok {
			sb, _ := b.(string)
			entry.Detail = TextDetail(sa, sb)
		}
	}
	return entry
}

func itemStatus(entries []model.DiffEntry) model.DiffStatus {
	for _, e := range entries {
		if e.Status != model.StatusIdentical {
			return model.StatusDifferent
		}
	}
	return model.StatusIdentical
}

func indexProperties(props []model.PropertyDefinition) map[string]model.PropertyDefinition {
	out := make(map[string]model.PropertyDefinition, len(props))
	for _, p := range props {
		out[p.Name] = p
	}
	return out
}

// unionKeys returns the sorted union of the keys of a and b.
func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
