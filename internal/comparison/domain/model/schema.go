package model

import "strings"

// CustomObjectTypePrefix marks platform-assigned ids of custom object types.
const CustomObjectTypePrefix = "2-"

// ObjectLabels are the display labels of an object type.
type ObjectLabels struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
}

// ObjectSchema describes one object type of a portal. Name is the portable
// identity; ObjectTypeID differs across portals for custom objects.
type ObjectSchema struct {
	ObjectTypeID       string               `json:"object_type_id"`
	Name               string               `json:"name"`
	FullyQualifiedName string               `json:"fully_qualified_name,omitempty"`
	Labels             ObjectLabels         `json:"labels"`
	Custom             bool                 `json:"custom"`
	Properties         []PropertyDefinition `json:"properties,omitempty"`
}

// Key returns the object-type key used to fetch the schema: the platform id
// for custom objects, the standard name otherwise.
func (s ObjectSchema) Key() string {
	if s.Custom && s.ObjectTypeID != "" {
		return s.ObjectTypeID
	}
	return s.Name
}

// DisplayName prefers the singular label over the internal name.
func (s ObjectSchema) DisplayName() string {
	if s.Labels.Singular != "" {
		return s.Labels.Singular
	}
	return s.Name
}

// Property returns the property named name.
func (s ObjectSchema) Property(name string) (PropertyDefinition, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDefinition{}, false
}

// IsCustomObjectKey reports whether key is a custom object type id.
func IsCustomObjectKey(key string) bool {
	return strings.HasPrefix(key, CustomObjectTypePrefix)
}

// CanonicalObjectKey is the form under which object-type keys are compared
// and stored. Standard and named keys are case insensitive; custom ids are
// kept as they are.
func CanonicalObjectKey(key string) string {
	key = strings.TrimSpace(key)
	if IsCustomObjectKey(key) {
		return key
	}
	return strings.ToLower(key)
}

// IsCustomSchema applies the platform rule for custom objects: a "2-" id and
// a fully qualified name in the "p" (portal) namespace.
func IsCustomSchema(objectTypeID, fullyQualifiedName string) bool {
	return IsCustomObjectKey(objectTypeID) && strings.HasPrefix(fullyQualifiedName, "p")
}

// StandardObjectTypes are the built-in object types offered for comparison.
var StandardObjectTypes = []string{
	"contacts", "companies", "deals", "tickets",
	"products", "line_items", "quotes", "calls",
	"emails", "meetings", "notes", "tasks",
}

var standardObjectTypeIDs = map[string]string{
	"contacts":             "0-1",
	"companies":            "0-2",
	"deals":                "0-3",
	"tickets":              "0-5",
	"appointments":         "0-421",
	"calls":                "0-48",
	"communications":       "0-18",
	"courses":              "0-410",
	"emails":               "0-49",
	"feedback_submissions": "0-19",
	"invoices":             "0-53",
	"leads":                "0-136",
	"line_items":           "0-8",
	"listings":             "0-420",
	"marketing_events":     "0-54",
	"meetings":             "0-47",
	"notes":                "0-46",
	"orders":               "0-123",
	"payments":             "0-101",
	"postal_mail":          "0-116",
	"products":             "0-7",
	"quotes":               "0-14",
	"services":             "0-162",
	"subscriptions":        "0-69",
	"tasks":                "0-27",
	"users":                "0-115",
}

// ObjectTypeID resolves an object-type key to its platform id. Custom ids and
// raw ids pass through unchanged.
func ObjectTypeID(key string) string {
	if id, ok := standardObjectTypeIDs[strings.ToLower(key)]; ok {
		return id
	}
	return key
}

// StandardSchema returns the catalog stub for a standard object type.
func StandardSchema(name string) ObjectSchema {
	label := strings.ReplaceAll(name, "_", " ")
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return ObjectSchema{
		ObjectTypeID: ObjectTypeID(name),
		Name:         name,
		Labels:       ObjectLabels{Singular: strings.TrimSuffix(label, "s"), Plural: label},
	}
}

// CustomSchemas returns only the custom entries of schemas.
func CustomSchemas(schemas []ObjectSchema) []ObjectSchema {
	out := make([]ObjectSchema, 0, len(schemas))
	for _, s := range schemas {
		if s.Custom {
			out = append(out, s)
		}
	}
	return out
}
