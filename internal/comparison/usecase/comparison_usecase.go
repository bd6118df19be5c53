package usecase

import (
	"context"
	"fmt"
	"time"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/repository"
	"portal-compare/internal/comparison/domain/service"
	"portal-compare/internal/shared/logger"

	"golang.org/x/sync/errgroup"
)

// ComparisonUsecaseInterface defines the comparison operations of a session.
type ComparisonUsecaseInterface interface {
	CompareObjectType(ctx context.Context, sessionID, objectType string) (*model.ComparisonResult, error)
	CompareProperties(ctx context.Context, sessionID string, refA, refB PropertyRef) (*model.ComparisonResult, error)
	CompareAssociations(ctx context.Context, sessionID, fromObject, toObject string) (*model.ComparisonResult, error)
	CompareCustomObjects(ctx context.Context, sessionID, keyA, keyB string) (*model.ComparisonResult, error)
	ListObjects(ctx context.Context, sessionID string) (*ObjectCatalog, error)
	AutoMatchCustomObjects(ctx context.Context, sessionID string) (*AutoMatchResult, error)
	MatchingOverview(ctx context.Context, sessionID string) (*MatchingOverview, error)
	Filter(result *model.ComparisonResult, opts service.FilterOptions) (*model.ComparisonResult, error)
}

// ComparisonUsecase fetches both portals through the snapshot cache and runs
// the differs on the result.
type ComparisonUsecase struct {
	sessions repository.SessionStore
	loader   *snapshotLoader

	properties   *service.PropertyDiffer
	associations *service.AssociationDiffer
	matcher      *service.EntityMatcher
	filter       *service.ResultFilter

	metrics repository.MetricsRecorder
	log     logger.Logger
}

var _ ComparisonUsecaseInterface = (*ComparisonUsecase)(nil)

// NewComparisonUsecase creates a ComparisonUsecase.
func NewComparisonUsecase(
	sessions repository.SessionStore,
	cache repository.SnapshotCache,
	fetcher repository.MetadataFetcher,
	filter *service.ResultFilter,
	metrics repository.MetricsRecorder,
	log logger.Logger,
) *ComparisonUsecase {
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ComparisonUsecase{
		sessions:     sessions,
		loader:       &snapshotLoader{cache: cache, fetcher: fetcher},
		properties:   service.NewPropertyDiffer(),
		associations: service.NewAssociationDiffer(),
		matcher:      service.NewEntityMatcher(),
		filter:       filter,
		metrics:      metrics,
		log:          log.WithComponent("comparison-usecase"),
	}
}

// session refreshes the last access time and returns a copy of the session.
func (uc *ComparisonUsecase) session(ctx context.Context, sessionID string) (*model.Session, error) {
	if err := uc.sessions.Touch(ctx, sessionID); err != nil {
		return nil, err
	}
	return uc.sessions.Get(ctx, sessionID)
}

// counterpart resolves the portal B key of a portal A object type. A mapping
// entry wins; custom objects need one, standard objects map to themselves.
func counterpart(sess *model.Session, keyA string) (string, error) {
	if keyB, ok := sess.MappedKey(keyA); ok {
		return keyB, nil
	}
	if model.IsCustomObjectKey(keyA) {
		return "", model.UnmappedError(keyA)
	}
	return keyA, nil
}

func (uc *ComparisonUsecase) observe(kind model.ResultKind, start time.Time, err error) {
	uc.metrics.ComparisonCompleted(string(kind), time.Since(start), err)
}

// schemaPair fetches keyA from portal A and keyB from portal B concurrently.
func (uc *ComparisonUsecase) schemaPair(ctx context.Context, sess *model.Session, keyA, keyB string) (model.ObjectSchema, model.ObjectSchema, error) {
	var a, b model.ObjectSchema
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = uc.loader.schema(gctx, sess, model.PortalA, keyA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = uc.loader.schema(gctx, sess, model.PortalB, keyB)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ObjectSchema{}, model.ObjectSchema{}, err
	}
	return a, b, nil
}

func (uc *ComparisonUsecase) catalogPair(ctx context.Context, sess *model.Session) ([]model.ObjectSchema, []model.ObjectSchema, error) {
	var a, b []model.ObjectSchema
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = uc.loader.catalog(gctx, sess, model.PortalA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = uc.loader.catalog(gctx, sess, model.PortalB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// CompareObjectType compares every property of an object type with its
// counterpart in portal B.
func (uc *ComparisonUsecase) CompareObjectType(ctx context.Context, sessionID, objectType string) (result *model.ComparisonResult, err error) {
	start := time.Now()
	defer func() { uc.observe(model.ResultKindObjectType, start, err) }()

	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	keyA := objectKey(objectType)
	if keyA == "" {
		return nil, &model.InvalidReferenceError{Portal: model.PortalA, ObjectType: objectType}
	}
	keyB, err := counterpart(sess, keyA)
	if err != nil {
		return nil, err
	}

	a, b, err := uc.schemaPair(ctx, sess, keyA, keyB)
	if err != nil {
		return nil, err
	}
	diff := uc.properties.DiffPropertySet(a, b)
	uc.log.WithContext(ctx).Debugf("Compared %s with %s: %d of %d entries changed",
		keyA, keyB, diff.Counts.Changed(), diff.Counts.Total())
	return diff.WithPortals(sess.PortalA, sess.PortalB), nil
}

// CompareCustomObjects compares two custom objects that the session maps onto
// each other.
func (uc *ComparisonUsecase) CompareCustomObjects(ctx context.Context, sessionID, keyA, keyB string) (result *model.ComparisonResult, err error) {
	start := time.Now()
	defer func() { uc.observe(model.ResultKindCustomObject, start, err) }()

	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	keyA, keyB = objectKey(keyA), objectKey(keyB)
	mapped, ok := sess.MappedKey(keyA)
	if !ok || mapped != keyB {
		return nil, model.UnmappedError(keyA)
	}

	a, b, err := uc.schemaPair(ctx, sess, keyA, keyB)
	if err != nil {
		return nil, err
	}
	diff := uc.properties.DiffPropertySet(a, b)
	diff.Kind = model.ResultKindCustomObject
	diff.Subject = keyA + " / " + keyB
	return diff.WithPortals(sess.PortalA, sess.PortalB), nil
}

// CompareProperties compares two individual properties, possibly on different
// object types and possibly on the same portal. Group names are not compared.
func (uc *ComparisonUsecase) CompareProperties(ctx context.Context, sessionID string, refA, refB PropertyRef) (result *model.ComparisonResult, err error) {
	start := time.Now()
	defer func() { uc.observe(model.ResultKindProperty, start, err) }()

	refA, err = normalizeRef(refA, model.PortalA)
	if err != nil {
		return nil, err
	}
	refB, err = normalizeRef(refB, model.PortalB)
	if err != nil {
		return nil, err
	}

	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var propA, propB model.PropertyDefinition
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		propA, err = uc.property(gctx, sess, refA)
		return err
	})
	g.Go(func() error {
		var err error
		propB, err = uc.property(gctx, sess, refB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diff := uc.properties.DiffProperty(propA, propB, true)
	diff.SubjectA = refA.ObjectType + "." + refA.Property
	diff.SubjectB = refB.ObjectType + "." + refB.Property
	return diff.WithPortals(sess.Portal(refA.Portal), sess.Portal(refB.Portal)), nil
}

func normalizeRef(ref PropertyRef, fallback model.Portal) (PropertyRef, error) {
	if ref.Portal == "" {
		ref.Portal = fallback
	}
	ref.ObjectType = objectKey(ref.ObjectType)
	if !ref.Portal.Valid() || ref.ObjectType == "" {
		return ref, &model.InvalidReferenceError{Portal: ref.Portal, ObjectType: ref.ObjectType, Property: ref.Property}
	}
	return ref, nil
}

// property loads one referenced property from the portal the ref names.
func (uc *ComparisonUsecase) property(ctx context.Context, sess *model.Session, ref PropertyRef) (model.PropertyDefinition, error) {
	schema, err := uc.loader.schema(ctx, sess, ref.Portal, ref.ObjectType)
	if err != nil {
		return model.PropertyDefinition{}, err
	}
	prop, ok := schema.Property(ref.Property)
	if !ok {
		return model.PropertyDefinition{}, &model.InvalidReferenceError{Portal: ref.Portal, ObjectType: ref.ObjectType, Property: ref.Property}
	}
	return prop, nil
}

// CompareAssociations compares the association types between two object types.
// Custom object keys are translated to portal B through the session mapping.
func (uc *ComparisonUsecase) CompareAssociations(ctx context.Context, sessionID, fromObject, toObject string) (result *model.ComparisonResult, err error) {
	start := time.Now()
	defer func() { uc.observe(model.ResultKindAssociations, start, err) }()

	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	from, to := objectKey(fromObject), objectKey(toObject)
	fromB, err := counterpart(sess, from)
	if err != nil {
		return nil, err
	}
	toB, err := counterpart(sess, to)
	if err != nil {
		return nil, err
	}

	var typesA, typesB []model.AssociationType
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		typesA, err = uc.loader.associations(gctx, sess, model.PortalA, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		typesB, err = uc.loader.associations(gctx, sess, model.PortalB, fromB, toB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	indexA, indexB := model.AssociationIndex{}, model.AssociationIndex{}
	indexA.Put(from, to, typesA)
	indexB.Put(fromB, toB, typesB)

	mapping := map[string]string{from: fromB, to: toB}
	diff := uc.associations.DiffAssociations(from, to, indexA, indexB, mapping)
	return diff.WithPortals(sess.PortalA, sess.PortalB), nil
}

// ListObjects returns the object catalogs of both portals.
func (uc *ComparisonUsecase) ListObjects(ctx context.Context, sessionID string) (*ObjectCatalog, error) {
	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	a, b, err := uc.catalogPair(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &ObjectCatalog{PortalA: a, PortalB: b}, nil
}

// AutoMatchCustomObjects pairs custom objects by name and stores the result as
// auto mapping entries. Manual entries are left alone.
func (uc *ComparisonUsecase) AutoMatchCustomObjects(ctx context.Context, sessionID string) (*AutoMatchResult, error) {
	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	a, b, err := uc.catalogPair(ctx, sess)
	if err != nil {
		return nil, err
	}

	matches := uc.matcher.AutoMatch(a, b)
	installed, err := uc.sessions.ApplyAutoMatches(ctx, sessionID, matches)
	if err != nil {
		return nil, fmt.Errorf("failed to apply auto matches: %w", err)
	}
	uc.log.WithContext(ctx).Infof("Auto-matched %d custom objects, %d new mapping entries", len(matches), installed)
	if matches == nil {
		matches = []model.Match{}
	}
	return &AutoMatchResult{Matches: matches, Installed: installed}, nil
}

// MatchingOverview returns the mapping and the custom objects of each portal
// that are not mapped yet.
func (uc *ComparisonUsecase) MatchingOverview(ctx context.Context, sessionID string) (*MatchingOverview, error) {
	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	a, b, err := uc.catalogPair(ctx, sess)
	if err != nil {
		return nil, err
	}
	onlyA, onlyB := uc.matcher.Unmatched(a, b, sess.CustomObjectMapping)
	return &MatchingOverview{
		Mapping:    sess.CustomObjectMapping,
		UnmatchedA: onlyA,
		UnmatchedB: onlyB,
	}, nil
}

// Filter narrows a result for presentation. It never changes the overall
// status of the comparison.
func (uc *ComparisonUsecase) Filter(result *model.ComparisonResult, opts service.FilterOptions) (*model.ComparisonResult, error) {
	if uc.filter == nil || opts.IsZero() {
		return result, nil
	}
	filtered, err := uc.filter.Apply(*result, opts)
	if err != nil {
		return nil, err
	}
	return &filtered, nil
}
