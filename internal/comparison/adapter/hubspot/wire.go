package hubspot

import (
	"strings"

	"portal-compare/internal/comparison/domain/model"
)

type paging struct {
	Next *struct {
		After string `json:"after"`
	} `json:"next"`
}

type propertiesPage struct {
	Results []wireProperty `json:"results"`
	Paging  *paging        `json:"paging"`
}

type wireOption struct {
	Value        string `json:"value"`
	Label        string `json:"label"`
	Description  string `json:"description"`
	Hidden       bool   `json:"hidden"`
	DisplayOrder int    `json:"displayOrder"`
}

type wireProperty struct {
	Name                 string       `json:"name"`
	Label                string       `json:"label"`
	Description          string       `json:"description"`
	Type                 string       `json:"type"`
	FieldType            string       `json:"fieldType"`
	GroupName            string       `json:"groupName"`
	Options              []wireOption `json:"options"`
	Required             bool         `json:"required"`
	Searchable           bool         `json:"searchableInGlobalSearch"`
	Hidden               bool         `json:"hidden"`
	DisplayOrder         *int         `json:"displayOrder"`
	HasUniqueValue       bool         `json:"hasUniqueValue"`
	Calculated           bool         `json:"calculated"`
	ExternalOptions      bool         `json:"externalOptions"`
	HubspotDefined       bool         `json:"hubspotDefined"`
	ShowCurrencySymbol   *bool        `json:"showCurrencySymbol"`
	ModificationMetadata *struct {
		ReadOnlyValue bool `json:"readOnlyValue"`
	} `json:"modificationMetadata"`
}

type validationsPage struct {
	Results []struct {
		PropertyName            string `json:"propertyName"`
		PropertyValidationRules []struct {
			RuleType      string   `json:"ruleType"`
			RuleArguments []string `json:"ruleArguments"`
		} `json:"propertyValidationRules"`
	} `json:"results"`
}

type schemasPage struct {
	Results []struct {
		ObjectTypeID       string `json:"objectTypeId"`
		Name               string `json:"name"`
		FullyQualifiedName string `json:"fullyQualifiedName"`
		Labels             struct {
			Singular string `json:"singular"`
			Plural   string `json:"plural"`
		} `json:"labels"`
	} `json:"results"`
}

type associationLabelsPage struct {
	Results []struct {
		Category string  `json:"category"`
		TypeID   int     `json:"typeId"`
		Label    *string `json:"label"`
	} `json:"results"`
}

func toProperty(w wireProperty, rules map[string]model.ValidationRule) model.PropertyDefinition {
	label := w.Label
	if label == "" {
		label = w.Name
	}
	p := model.PropertyDefinition{
		Name:                     w.Name,
		Label:                    label,
		Description:              w.Description,
		Type:                     model.PropertyType(strings.ToLower(w.Type)),
		FieldType:                model.FieldType(strings.ToLower(w.FieldType)),
		GroupName:                w.GroupName,
		Required:                 w.Required,
		SearchableInGlobalSearch: w.Searchable,
		Hidden:                   w.Hidden,
		DisplayOrder:             w.DisplayOrder,
		HasUniqueValue:           w.HasUniqueValue,
		Calculated:               w.Calculated,
		ExternalOptions:          w.ExternalOptions,
		PlatformDefined:          w.HubspotDefined,
		ShowCurrencySymbol:       w.ShowCurrencySymbol,
		ValidationRules:          rules,
	}
	if w.ModificationMetadata != nil {
		p.ReadOnly = w.ModificationMetadata.ReadOnlyValue
	}
	for _, o := range w.Options {
		p.Options = append(p.Options, model.Option{
			Value:        o.Value,
			Label:        o.Label,
			Description:  o.Description,
			Hidden:       o.Hidden,
			DisplayOrder: o.DisplayOrder,
		})
	}
	return p
}

func toRules(page validationsPage) map[string]map[string]model.ValidationRule {
	out := make(map[string]map[string]model.ValidationRule, len(page.Results))
	for _, r := range page.Results {
		if r.PropertyName == "" {
			continue
		}
		rules := make([]model.ValidationRule, 0, len(r.PropertyValidationRules))
		for _, raw := range r.PropertyValidationRules {
			rules = append(rules, model.NewValidationRule(raw.RuleType, raw.RuleArguments))
		}
		if byName := model.RulesByName(rules); byName != nil {
			out[r.PropertyName] = byName
		}
	}
	return out
}
