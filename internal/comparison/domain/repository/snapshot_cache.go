package repository

import (
	"context"

	"portal-compare/internal/comparison/domain/model"
)

// Fetch functions are supplied by the caller and only run on a cache miss.
type (
	SchemaFetchFunc       func(ctx context.Context) (model.ObjectSchema, error)
	CatalogFetchFunc      func(ctx context.Context) ([]model.ObjectSchema, error)
	AssociationsFetchFunc func(ctx context.Context) ([]model.AssociationType, error)
)

// SnapshotCache memoises fetched metadata per session and portal. Entries are
// replaced wholesale; a fetch never runs under the cache lock.
type SnapshotCache interface {
	GetOrFetchSchema(ctx context.Context, sessionID string, portal model.Portal, objectType string, fetch SchemaFetchFunc) (model.ObjectSchema, error)
	GetOrFetchCatalog(ctx context.Context, sessionID string, portal model.Portal, fetch CatalogFetchFunc) ([]model.ObjectSchema, error)
	GetOrFetchAssociations(ctx context.Context, sessionID string, portal model.Portal, from, to string, fetch AssociationsFetchFunc) ([]model.AssociationType, error)
	// Refresh re-fetches a schema and atomically replaces the cached entry.
	Refresh(ctx context.Context, sessionID string, portal model.Portal, objectType string, fetch SchemaFetchFunc) (model.ObjectSchema, error)
	// MarkStale forces the next access to re-fetch. An empty objectType marks
	// every entry of the session.
	MarkStale(sessionID, objectType string) (int, error)
	Status(sessionID string) (model.CacheStatus, error)
	Open(sessionID string)
	Purge(sessionID string)
}
