package model

import (
	"sort"
	"strconv"
	"strings"
)

// RuleKind is the closed set of validation rule types understood by the
// differ. Anything else is RuleKindUnknown and still compared param by param.
type RuleKind string

const (
	RuleKindMinNumber    RuleKind = "MIN_NUMBER"
	RuleKindMaxNumber    RuleKind = "MAX_NUMBER"
	RuleKindMinLength    RuleKind = "MIN_LENGTH"
	RuleKindMaxLength    RuleKind = "MAX_LENGTH"
	RuleKindRegex        RuleKind = "REGEX"
	RuleKindAlphanumeric RuleKind = "ALPHANUMERIC"
	RuleKindNumericOnly  RuleKind = "NUMERIC_ONLY"
	RuleKindEmail        RuleKind = "EMAIL"
	RuleKindPhone        RuleKind = "PHONE"
	RuleKindURL          RuleKind = "URL"
	RuleKindDateRange    RuleKind = "DATE_RANGE"
	RuleKindUnknown      RuleKind = "UNKNOWN"
)

var knownRuleKinds = map[RuleKind]struct{}{
	RuleKindMinNumber:    {},
	RuleKindMaxNumber:    {},
	RuleKindMinLength:    {},
	RuleKindMaxLength:    {},
	RuleKindRegex:        {},
	RuleKindAlphanumeric: {},
	RuleKindNumericOnly:  {},
	RuleKindEmail:        {},
	RuleKindPhone:        {},
	RuleKindURL:          {},
	RuleKindDateRange:    {},
}

// ParseRuleKind maps a platform rule type to a RuleKind.
func ParseRuleKind(s string) RuleKind {
	k := RuleKind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownRuleKinds[k]; ok {
		return k
	}
	return RuleKindUnknown
}

// Known reports whether k is an enumerated rule kind.
func (k RuleKind) Known() bool {
	_, ok := knownRuleKinds[k]
	return ok
}

// NumericOnlyPattern is the regex equivalent of an ALPHANUMERIC/NUMERIC_ONLY rule.
const NumericOnlyPattern = `^\d+$`

// ValidationRule is a flat set of key/value facts about one named rule.
type ValidationRule struct {
	Name   string            `json:"name"`
	Kind   RuleKind          `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// NewValidationRule builds a rule from a platform rule type and its
// positional arguments.
func NewValidationRule(ruleType string, args []string) ValidationRule {
	kind := ParseRuleKind(ruleType)
	rule := ValidationRule{Name: ruleType, Kind: kind, Params: map[string]string{}}

	first := ""
	if len(args) > 0 {
		first = args[0]
	}

	switch kind {
	case RuleKindMinNumber:
		setIfPresent(rule.Params, "min", first)
	case RuleKindMaxNumber:
		setIfPresent(rule.Params, "max", first)
	case RuleKindMinLength:
		setIfPresent(rule.Params, "min_length", first)
	case RuleKindMaxLength:
		setIfPresent(rule.Params, "max_length", first)
	case RuleKindRegex:
		setIfPresent(rule.Params, "pattern", first)
	case RuleKindAlphanumeric:
		for _, arg := range args {
			if arg == string(RuleKindNumericOnly) {
				rule.Name = string(RuleKindNumericOnly)
				rule.Kind = RuleKindNumericOnly
				rule.Params["pattern"] = NumericOnlyPattern
				return rule
			}
		}
		setPositional(rule.Params, args)
	default:
		setPositional(rule.Params, args)
	}
	if rule.Name == "" {
		rule.Name = string(RuleKindUnknown)
	}
	return rule
}

func setIfPresent(params map[string]string, key, value string) {
	if value != "" {
		params[key] = value
	}
}

func setPositional(params map[string]string, args []string) {
	for i, arg := range args {
		params["arg"+strconv.Itoa(i)] = arg
	}
}

// ParamKeys returns the parameter names of r in sorted order.
func (r ValidationRule) ParamKeys() []string {
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders the rule parameters as "k=v" pairs, sorted by key.
func (r ValidationRule) Format() string {
	keys := r.ParamKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+r.Params[k])
	}
	if len(parts) == 0 {
		return r.Name
	}
	return r.Name + "(" + strings.Join(parts, ", ") + ")"
}

// RulesByName builds the rule map of a property. Later rules with the same
// name replace earlier ones.
func RulesByName(rules []ValidationRule) map[string]ValidationRule {
	if len(rules) == 0 {
		return nil
	}
	out := make(map[string]ValidationRule, len(rules))
	for _, r := range rules {
		out[r.Name] = r
	}
	return out
}
