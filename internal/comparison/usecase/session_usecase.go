package usecase

import (
	"context"
	"fmt"
	"strings"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/repository"
	"portal-compare/internal/shared/logger"

	"golang.org/x/sync/errgroup"
)

// SessionUsecaseInterface defines the session lifecycle operations.
type SessionUsecaseInterface interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SetCustomMapping(ctx context.Context, sessionID, keyA, keyB string) error
	RemoveCustomMapping(ctx context.Context, sessionID, keyA string) error
	RefreshCache(ctx context.Context, sessionID, objectType string, eager bool) (int, error)
	CacheStatus(ctx context.Context, sessionID string) (*model.CacheStatus, error)
}

// SessionUsecase manages comparison sessions and their cache.
type SessionUsecase struct {
	sessions  repository.SessionStore
	cache     repository.SnapshotCache
	loader    *snapshotLoader
	validator repository.CredentialValidator
	log       logger.Logger
}

var _ SessionUsecaseInterface = (*SessionUsecase)(nil)

// NewSessionUsecase creates a SessionUsecase. validator may be nil, in which
// case credentials are accepted without a round trip to the portal.
func NewSessionUsecase(
	sessions repository.SessionStore,
	cache repository.SnapshotCache,
	fetcher repository.MetadataFetcher,
	validator repository.CredentialValidator,
	log logger.Logger,
) *SessionUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SessionUsecase{
		sessions:  sessions,
		cache:     cache,
		loader:    &snapshotLoader{cache: cache, fetcher: fetcher},
		validator: validator,
		log:       log.WithComponent("session-usecase"),
	}
}

// CreateSession validates both tokens and opens a new session.
func (uc *SessionUsecase) CreateSession(ctx context.Context, in CreateSessionInput) (*model.Session, error) {
	credA := model.NewCredential(strings.TrimSpace(in.PortalAToken))
	credB := model.NewCredential(strings.TrimSpace(in.PortalBToken))
	refA := model.NewPortalRef(in.PortalAName, credA)
	refB := model.NewPortalRef(in.PortalBName, credB)

	if uc.validator != nil {
		g, gctx := errgroup.WithContext(ctx)
		for _, side := range []struct {
			portal model.Portal
			ref    model.PortalRef
		}{{model.PortalA, refA}, {model.PortalB, refB}} {
			side := side
			g.Go(func() error {
				if err := uc.validator.ValidateCredential(gctx, side.ref.Credential); err != nil {
					return fetchError(side.portal, side.ref, "validate_credential", err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			uc.log.WithContext(ctx).Warnf("Credential validation failed: %v", err)
			return nil, err
		}
	}

	sess, err := uc.sessions.Create(ctx, credA, credB, in.PortalAName, in.PortalBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session and counts the call as activity.
func (uc *SessionUsecase) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if err := uc.sessions.Touch(ctx, sessionID); err != nil {
		return nil, err
	}
	return uc.sessions.Get(ctx, sessionID)
}

// DeleteSession ends a session together with its cache and mapping.
func (uc *SessionUsecase) DeleteSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// SetCustomMapping records a manual custom object mapping. Keys are matched
// the same way the comparison operations look them up.
func (uc *SessionUsecase) SetCustomMapping(ctx context.Context, sessionID, keyA, keyB string) error {
	keyA, keyB = objectKey(keyA), objectKey(keyB)
	if keyA == "" || keyB == "" {
		return fmt.Errorf("%w: both keys are required", model.ErrInvalidMapping)
	}
	return uc.sessions.SetCustomMapping(ctx, sessionID, keyA, keyB)
}

// RemoveCustomMapping drops the mapping entry of keyA, if any.
func (uc *SessionUsecase) RemoveCustomMapping(ctx context.Context, sessionID, keyA string) error {
	return uc.sessions.RemoveCustomMapping(ctx, sessionID, objectKey(keyA))
}

// RefreshCache invalidates cached snapshots. Without eager the entries are
// marked stale and re-fetched on next access; an empty objectType covers the
// whole session. With eager and an object type both portals are re-fetched
// now and the number of replaced entries is returned.
func (uc *SessionUsecase) RefreshCache(ctx context.Context, sessionID, objectType string, eager bool) (int, error) {
	sess, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	objectType = objectKey(objectType)

	if !eager || objectType == "" {
		n, err := uc.cache.MarkStale(sessionID, objectType)
		if err != nil {
			return 0, err
		}
		uc.log.WithContext(ctx).Infof("Marked %d cache entries stale", n)
		return n, nil
	}

	keyB := objectType
	if mapped, ok := sess.MappedKey(objectType); ok {
		keyB = mapped
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := uc.loader.refresh(gctx, sess, model.PortalA, objectType)
		return err
	})
	g.Go(func() error {
		_, err := uc.loader.refresh(gctx, sess, model.PortalB, keyB)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return 2, nil
}

// CacheStatus reports what is cached for the session.
func (uc *SessionUsecase) CacheStatus(ctx context.Context, sessionID string) (*model.CacheStatus, error) {
	if err := uc.sessions.Touch(ctx, sessionID); err != nil {
		return nil, err
	}
	status, err := uc.cache.Status(sessionID)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
