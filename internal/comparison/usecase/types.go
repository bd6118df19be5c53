package usecase

import (
	"portal-compare/internal/comparison/domain/model"
)

// PropertyRef addresses one property of one object type on one portal. Both
// refs of a comparison may name the same portal. An empty Portal defaults to
// portal A for the first ref and portal B for the second.
type PropertyRef struct {
	Portal     model.Portal `json:"portal,omitempty" validate:"omitempty,oneof=a b"`
	ObjectType string       `json:"object_type" validate:"required"`
	Property   string `json:"property" validate:"required"`
}

// CreateSessionInput carries the two portals of a new session. Tokens are
// turned into opaque credentials immediately.
type CreateSessionInput struct {
	PortalAName  string
	PortalAToken string
	PortalBName  string
	PortalBToken string
}

// ObjectCatalog lists the object types of both portals.
type ObjectCatalog struct {
	PortalA []model.ObjectSchema `json:"portal_a"`
	PortalB []model.ObjectSchema `json:"portal_b"`
}

// AutoMatchResult reports the proposals of the matcher and how many of them
// became mapping entries.
type AutoMatchResult struct {
	Matches   []model.Match `json:"matches"`
	Installed int           `json:"installed"`
}

// MatchingOverview shows the current mapping and what still needs a manual
// decision.
type MatchingOverview struct {
	Mapping    map[string]model.MappingEntry `json:"mapping"`
	UnmatchedA []model.ObjectSchema          `json:"unmatched_a"`
	UnmatchedB []model.ObjectSchema          `json:"unmatched_b"`
}

func objectKey(key string) string {
	return model.CanonicalObjectKey(key)
}
