package model

import "sort"

// PropertyType is the data type of a property.
type PropertyType string

const (
	PropertyTypeString            PropertyType = "string"
	PropertyTypeNumber            PropertyType = "number"
	PropertyTypeDate              PropertyType = "date"
	PropertyTypeDateTime          PropertyType = "datetime"
	PropertyTypeEnumeration       PropertyType = "enumeration"
	PropertyTypeBool              PropertyType = "bool"
	PropertyTypePhoneNumber       PropertyType = "phone_number"
	PropertyTypeObjectCoordinates PropertyType = "object_coordinates"
	PropertyTypeJSON              PropertyType = "json"
)

var knownPropertyTypes = map[PropertyType]struct{}{
	PropertyTypeString:            {},
	PropertyTypeNumber:            {},
	PropertyTypeDate:              {},
	PropertyTypeDateTime:          {},
	PropertyTypeEnumeration:       {},
	PropertyTypeBool:              {},
	PropertyTypePhoneNumber:       {},
	PropertyTypeObjectCoordinates: {},
	PropertyTypeJSON:              {},
}

// Known reports whether t is one of the enumerated types. Unknown values are
// kept verbatim so they still take part in comparisons.
func (t PropertyType) Known() bool {
	_, ok := knownPropertyTypes[t]
	return ok
}

// FieldType is the UI rendering subtype of a property.
type FieldType string

const (
	FieldTypeText                FieldType = "text"
	FieldTypeTextarea            FieldType = "textarea"
	FieldTypeNumber              FieldType = "number"
	FieldTypeDate                FieldType = "date"
	FieldTypeDateTime            FieldType = "datetime"
	FieldTypeSelect              FieldType = "select"
	FieldTypeRadio               FieldType = "radio"
	FieldTypeCheckbox            FieldType = "checkbox"
	FieldTypeBooleanCheckbox     FieldType = "booleancheckbox"
	FieldTypeFile                FieldType = "file"
	FieldTypeHTML                FieldType = "html"
	FieldTypePhoneNumber         FieldType = "phonenumber"
	FieldTypeCalculationEquation FieldType = "calculation_equation"
	FieldTypeCalculationRollup   FieldType = "calculation_rollup"
	FieldTypeCalculationScore    FieldType = "calculation_score"
	FieldTypeCalculationReadTime FieldType = "calculation_read_time"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText:                {},
	FieldTypeTextarea:            {},
	FieldTypeNumber:              {},
	FieldTypeDate:                {},
	FieldTypeDateTime:            {},
	FieldTypeSelect:              {},
	FieldTypeRadio:               {},
	FieldTypeCheckbox:            {},
	FieldTypeBooleanCheckbox:     {},
	FieldTypeFile:                {},
	FieldTypeHTML:                {},
	FieldTypePhoneNumber:         {},
	FieldTypeCalculationEquation: {},
	FieldTypeCalculationRollup:   {},
	FieldTypeCalculationScore:    {},
	FieldTypeCalculationReadTime: {},
}

// Known reports whether f is one of the enumerated field types.
func (f FieldType) Known() bool {
	_, ok := knownFieldTypes[f]
	return ok
}

// Option is one choice of an enumeration property. Value is its identity.
type Option struct {
	Value        string `json:"value"`
	Label        string `json:"label"`
	Description  string `json:"description,omitempty"`
	Hidden       bool   `json:"hidden"`
	DisplayOrder int    `json:"display_order"`
}

// PropertyDefinition is one field definition on an object type. Name is the
// only identity key; platform numeric ids are never compared. DisplayOrder and
// ShowCurrencySymbol are nil when the portal does not report them.
type PropertyDefinition struct {
	Name                     string                    `json:"name"`
	Label                    string                    `json:"label"`
	Description              string                    `json:"description,omitempty"`
	Type                     PropertyType              `json:"type"`
	FieldType                FieldType                 `json:"field_type"`
	Options                  []Option                  `json:"options,omitempty"`
	GroupName                string                    `json:"group_name"`
	Required                 bool                      `json:"required"`
	ReadOnly                 bool                      `json:"read_only"`
	SearchableInGlobalSearch bool                      `json:"searchable_in_global_search"`
	Hidden                   bool                      `json:"hidden"`
	DisplayOrder             *int                      `json:"display_order,omitempty"`
	HasUniqueValue           bool                      `json:"has_unique_value"`
	Calculated               bool                      `json:"calculated"`
	ExternalOptions          bool                      `json:"external_options"`
	PlatformDefined          bool                      `json:"platform_defined"`
	ShowCurrencySymbol       *bool                     `json:"show_currency_symbol,omitempty"`
	ValidationRules          map[string]ValidationRule `json:"validation_rules,omitempty"`
}

// OptionsByValue indexes the options of p by value. When a value repeats the
// first occurrence wins.
func (p PropertyDefinition) OptionsByValue() map[string]Option {
	out := make(map[string]Option, len(p.Options))
	for _, opt := range p.Options {
		if _, seen := out[opt.Value]; !seen {
			out[opt.Value] = opt
		}
	}
	return out
}

// SortProperties orders properties by name in place.
func SortProperties(props []PropertyDefinition) {
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].Name < props[j].Name
	})
}
