package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/repository"
	"portal-compare/internal/shared/eventbus"
	"portal-compare/internal/shared/logger"

	"github.com/google/uuid"
)

const sessionStoreSource = "session-store"

// SessionStoreConfig controls session expiry.
type SessionStoreConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// DefaultSessionStoreConfig mirrors the one hour idle timeout and the five
// minute cleanup cadence of the service.
func DefaultSessionStoreConfig() SessionStoreConfig {
	return SessionStoreConfig{
		TTL:           time.Hour,
		SweepInterval: 5 * time.Minute,
	}
}

// SessionStoreOption customises a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) { s.now = now }
}

// WithEventBus publishes session lifecycle events on bus.
func WithEventBus(bus eventbus.EventBusInterface) SessionStoreOption {
	return func(s *SessionStore) { s.bus = bus }
}

// WithSessionMetrics reports the number of live sessions.
func WithSessionMetrics(m repository.MetricsRecorder) SessionStoreOption {
	return func(s *SessionStore) { s.metrics = m }
}

type sessionEntry struct {
	mu      sync.Mutex
	session *model.Session
	removed bool
}

// SessionStore keeps sessions in process memory. The store lock guards the
// index only; each session has its own lock for reads and mutations.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	config  SessionStoreConfig
	now     func() time.Time
	bus     eventbus.EventBusInterface
	metrics repository.MetricsRecorder
	log     logger.Logger

	janitor   *time.Timer
	stopChan  chan struct{}
	closeOnce sync.Once
}

var _ repository.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a store and starts its sweep janitor when
// config.SweepInterval is positive.
func NewSessionStore(config SessionStoreConfig, log logger.Logger, opts ...SessionStoreOption) *SessionStore {
	if config.TTL <= 0 {
		config.TTL = DefaultSessionStoreConfig().TTL
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &SessionStore{
		sessions: make(map[string]*sessionEntry),
		config:   config,
		now:      time.Now,
		metrics:  repository.NopMetrics{},
		log:      log.WithComponent(sessionStoreSource),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if config.SweepInterval > 0 {
		s.startJanitor()
	}
	return s
}

// Create registers a new session for two portals.
func (s *SessionStore) Create(ctx context.Context, credA, credB model.Credential, nameA, nameB string) (*model.Session, error) {
	now := s.now()
	session := &model.Session{
		ID:                  uuid.NewString(),
		PortalA:             model.NewPortalRef(strings.TrimSpace(nameA), credA),
		PortalB:             model.NewPortalRef(strings.TrimSpace(nameB), credB),
		CreatedAt:           now,
		LastAccessedAt:      now,
		CustomObjectMapping: make(map[string]model.MappingEntry),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{session: session}
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SessionsActive(count)
	s.log.WithFields(map[string]interface{}{
		"session_id":  session.ID,
		"portal_a":    session.PortalA.Name,
		"portal_a_fp": session.PortalA.Fingerprint,
		"portal_b":    session.PortalB.Name,
		"portal_b_fp": session.PortalB.Fingerprint,
	}).Info("Session created")
	s.publish(ctx, eventbus.EventTypeSessionCreated, session.ID)

	return session.Clone(), nil
}

// Get returns a copy of the session without refreshing its last access.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	var out *model.Session
	err := s.withSession(ctx, sessionID, func(session *model.Session) error {
		out = session.Clone()
		return nil
	})
	return out, err
}

// Touch refreshes the last access time of the session.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	return s.withSession(ctx, sessionID, func(session *model.Session) error {
		session.LastAccessedAt = s.now()
		return nil
	})
}

// SetCustomMapping records a manual mapping. Manual entries always win over
// auto-match results. Both keys are stored in canonical form.
func (s *SessionStore) SetCustomMapping(ctx context.Context, sessionID, keyA, keyB string) error {
	keyA, keyB = model.CanonicalObjectKey(keyA), model.CanonicalObjectKey(keyB)
	if keyA == "" || keyB == "" {
		return fmt.Errorf("%w: both keys are required", model.ErrInvalidMapping)
	}
	return s.withSession(ctx, sessionID, func(session *model.Session) error {
		session.CustomObjectMapping[keyA] = model.MappingEntry{
			KeyB:       keyB,
			Source:     model.MappingSourceManual,
			Confidence: 1,
			UpdatedAt:  s.now(),
		}
		return nil
	})
}

// RemoveCustomMapping drops the entry for keyA. Removing a missing entry is
// not an error.
func (s *SessionStore) RemoveCustomMapping(ctx context.Context, sessionID, keyA string) error {
	return s.withSession(ctx, sessionID, func(session *model.Session) error {
		delete(session.CustomObjectMapping, model.CanonicalObjectKey(keyA))
		return nil
	})
}

// ApplyAutoMatches installs auto-match entries. Existing manual entries are
// left untouched; earlier auto entries are replaced.
func (s *SessionStore) ApplyAutoMatches(ctx context.Context, sessionID string, matches []model.Match) (int, error) {
	installed := 0
	err := s.withSession(ctx, sessionID, func(session *model.Session) error {
		now := s.now()
		for _, m := range matches {
			keyA := model.CanonicalObjectKey(m.KeyA)
			if existing, ok := session.CustomObjectMapping[keyA]; ok && existing.Source == model.MappingSourceManual {
				continue
			}
			session.CustomObjectMapping[keyA] = model.MappingEntry{
				KeyB:       model.CanonicalObjectKey(m.KeyB),
				Source:     model.MappingSourceAuto,
				Confidence: m.Confidence,
				UpdatedAt:  now,
			}
			installed++
		}
		return nil
	})
	return installed, err
}

// Delete tears the session down explicitly.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return model.ErrSessionNotFound
	}

	entry.mu.Lock()
	if entry.removed {
		entry.mu.Unlock()
		return model.ErrSessionNotFound
	}
	entry.removed = true
	entry.mu.Unlock()

	s.remove(sessionID, entry)
	s.log.WithFields(map[string]interface{}{"session_id": sessionID}).Info("Session deleted")
	s.publish(ctx, eventbus.EventTypeSessionDeleted, sessionID)
	return nil
}

// ExpireSweep removes every session idle beyond the TTL and returns how many
// were removed.
func (s *SessionStore) ExpireSweep(ctx context.Context) int {
	s.mu.RLock()
	candidates := make(map[string]*sessionEntry, len(s.sessions))
	for id, entry := range s.sessions {
		candidates[id] = entry
	}
	s.mu.RUnlock()

	now := s.now()
	expired := 0
	for id, entry := range candidates {
		entry.mu.Lock()
		if entry.removed || !entry.session.ExpiredAt(now, s.config.TTL) {
			entry.mu.Unlock()
			continue
		}
		entry.removed = true
		entry.mu.Unlock()

		s.remove(id, entry)
		s.publish(ctx, eventbus.EventTypeSessionExpired, id)
		expired++
	}

	if expired > 0 {
		s.log.Infof("Expired %d idle sessions", expired)
	}
	return expired
}

// Count returns the number of sessions in the index.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the sweep janitor.
func (s *SessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	return nil
}

// withSession runs fn under the session lock after the lazy expiry check.
func (s *SessionStore) withSession(ctx context.Context, sessionID string, fn func(*model.Session) error) error {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return model.ErrSessionNotFound
	}

	entry.mu.Lock()
	if entry.removed {
		entry.mu.Unlock()
		return model.ErrSessionNotFound
	}
	if entry.session.ExpiredAt(s.now(), s.config.TTL) {
		entry.removed = true
		entry.mu.Unlock()
		s.remove(sessionID, entry)
		s.log.WithFields(map[string]interface{}{"session_id": sessionID}).Info("Session expired")
		s.publish(ctx, eventbus.EventTypeSessionExpired, sessionID)
		return model.ErrSessionNotFound
	}
	err := fn(entry.session)
	entry.mu.Unlock()
	return err
}

func (s *SessionStore) remove(sessionID string, entry *sessionEntry) {
	s.mu.Lock()
	if s.sessions[sessionID] == entry {
		delete(s.sessions, sessionID)
	}
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SessionsActive(count)
}

func (s *SessionStore) publish(ctx context.Context, eventType, sessionID string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, eventbus.NewBasicEvent(eventType, sessionID, sessionStoreSource)); err != nil {
		s.log.Errorf("Failed to publish %s for session %s: %v", eventType, sessionID, err)
	}
}

func (s *SessionStore) startJanitor() {
	s.janitor = time.NewTimer(s.config.SweepInterval)

	go func() {
		for {
			select {
			case <-s.janitor.C:
				s.ExpireSweep(context.Background())
				s.janitor.Reset(s.config.SweepInterval)
			case <-s.stopChan:
				s.janitor.Stop()
				return
			}
		}
	}()
}
