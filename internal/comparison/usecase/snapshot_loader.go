package usecase

import (
	"context"
	"errors"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/repository"
	"portal-compare/internal/shared/utils"
)

// snapshotLoader reads portal metadata through the session's cache and
// attributes fetch failures to the portal they came from.
type snapshotLoader struct {
	cache   repository.SnapshotCache
	fetcher repository.MetadataFetcher
}

func (l *snapshotLoader) schemaFetch(sess *model.Session, portal model.Portal, objectType string) repository.SchemaFetchFunc {
	ref := sess.Portal(portal)
	return func(ctx context.Context) (model.ObjectSchema, error) {
		ctx = utils.WithPortal(ctx, string(portal))
		props, err := l.fetcher.FetchProperties(ctx, ref.Credential, objectType)
		if err != nil {
			return model.ObjectSchema{}, fetchError(portal, ref, "fetch_properties", err)
		}
		return model.ObjectSchema{
			ObjectTypeID: model.ObjectTypeID(objectType),
			Name:         objectType,
			Custom:       model.IsCustomObjectKey(objectType),
			Properties:   props,
		}, nil
	}
}

func (l *snapshotLoader) schema(ctx context.Context, sess *model.Session, portal model.Portal, objectType string) (model.ObjectSchema, error) {
	schema, err := l.cache.GetOrFetchSchema(ctx, sess.ID, portal, objectType, l.schemaFetch(sess, portal, objectType))
	if err != nil {
		return model.ObjectSchema{}, referenceError(portal, objectType, err)
	}
	return schema, nil
}

func (l *snapshotLoader) refresh(ctx context.Context, sess *model.Session, portal model.Portal, objectType string) (model.ObjectSchema, error) {
	schema, err := l.cache.Refresh(ctx, sess.ID, portal, objectType, l.schemaFetch(sess, portal, objectType))
	if err != nil {
		return model.ObjectSchema{}, referenceError(portal, objectType, err)
	}
	return schema, nil
}

func (l *snapshotLoader) catalog(ctx context.Context, sess *model.Session, portal model.Portal) ([]model.ObjectSchema, error) {
	ref := sess.Portal(portal)
	return l.cache.GetOrFetchCatalog(ctx, sess.ID, portal, func(ctx context.Context) ([]model.ObjectSchema, error) {
		ctx = utils.WithPortal(ctx, string(portal))
		schemas, err := l.fetcher.FetchSchemas(ctx, ref.Credential)
		if err != nil {
			return nil, fetchError(portal, ref, "fetch_schemas", err)
		}
		return schemas, nil
	})
}

func (l *snapshotLoader) associations(ctx context.Context, sess *model.Session, portal model.Portal, from, to string) ([]model.AssociationType, error) {
	ref := sess.Portal(portal)
	types, err := l.cache.GetOrFetchAssociations(ctx, sess.ID, portal, from, to, func(ctx context.Context) ([]model.AssociationType, error) {
		ctx = utils.WithPortal(ctx, string(portal))
		types, err := l.fetcher.FetchAssociations(ctx, ref.Credential, from, to)
		if err != nil {
			return nil, fetchError(portal, ref, "fetch_associations", err)
		}
		return types, nil
	})
	if err != nil {
		return nil, referenceError(portal, from, err)
	}
	return types, nil
}

func fetchError(portal model.Portal, ref model.PortalRef, operation string, err error) error {
	return &model.UpstreamFetchError{Portal: portal, PortalName: ref.Name, Operation: operation, Err: err}
}

// referenceError reports an upstream "not found" for a requested object type
// as an invalid reference. Other errors pass through.
func referenceError(portal model.Portal, objectType string, err error) error {
	if errors.Is(err, model.ErrUpstreamNotFound) {
		return &model.InvalidReferenceError{Portal: portal, ObjectType: objectType, Err: err}
	}
	return err
}
