package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/repository"
	"portal-compare/internal/shared/eventbus"
	"portal-compare/internal/shared/logger"
)

// Cache entity key prefixes.
const (
	schemaKeyPrefix       = "schema:"
	catalogKey            = "catalog"
	associationsKeyPrefix = "associations:"
)

// SchemaKey is the cache key of an object type schema.
func SchemaKey(objectType string) string { return schemaKeyPrefix + objectType }

// AssociationsKey is the cache key of the association types of a pair.
func AssociationsKey(from, to string) string { return associationsKeyPrefix + from + ":" + to }

// SnapshotCacheConfig controls entry freshness. A zero MaxAge keeps entries
// for the session lifetime or until they are refreshed.
type SnapshotCacheConfig struct {
	MaxAge time.Duration
}

type entryKey struct {
	portal model.Portal
	key    string
}

type cacheEntry struct {
	value     interface{}
	fetchedAt time.Time
	stale     bool
}

// partition holds the entries of one session. Entries are immutable once
// installed and only ever replaced.
type partition struct {
	mu      sync.Mutex
	entries map[entryKey]*cacheEntry
	closed  bool
}

// SnapshotCache memoises fetched metadata per session and portal. The fetch
// callback always runs outside any lock; results are installed on completion
// and the last writer wins.
type SnapshotCache struct {
	mu         sync.RWMutex
	partitions map[string]*partition

	config  SnapshotCacheConfig
	now     func() time.Time
	metrics repository.MetricsRecorder
	log     logger.Logger
}

var _ repository.SnapshotCache = (*SnapshotCache)(nil)

// NewSnapshotCache creates an empty cache.
func NewSnapshotCache(config SnapshotCacheConfig, metrics repository.MetricsRecorder, log logger.Logger) *SnapshotCache {
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SnapshotCache{
		partitions: make(map[string]*partition),
		config:     config,
		now:        time.Now,
		metrics:    metrics,
		log:        log.WithComponent("snapshot-cache"),
	}
}

// SetClock replaces time.Now, mostly for tests.
func (c *SnapshotCache) SetClock(now func() time.Time) {
	c.now = now
}

// Open creates the partition of a session. Opening twice is a no-op.
func (c *SnapshotCache) Open(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.partitions[sessionID]; !ok {
		c.partitions[sessionID] = &partition{entries: make(map[entryKey]*cacheEntry)}
	}
}

// Purge drops every entry of a session. Fetches still in flight for it
// complete but are not installed.
func (c *SnapshotCache) Purge(sessionID string) {
	c.mu.Lock()
	p, ok := c.partitions[sessionID]
	delete(c.partitions, sessionID)
	c.mu.Unlock()
	if !ok {
		return
	}

	p.mu.Lock()
	p.closed = true
	p.entries = nil
	p.mu.Unlock()
	c.log.Debugf("Purged snapshot cache of session %s", sessionID)
}

// HandleSessionEvent keeps partitions in step with the session lifecycle.
func (c *SnapshotCache) HandleSessionEvent(ctx context.Context, event eventbus.Event) error {
	sessionID, ok := event.Data().(string)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
	}
	switch event.Type() {
	case eventbus.EventTypeSessionCreated:
		c.Open(sessionID)
	case eventbus.EventTypeSessionExpired, eventbus.EventTypeSessionDeleted:
		c.Purge(sessionID)
	}
	return nil
}

// Subscribe registers HandleSessionEvent for every session lifecycle event.
func (c *SnapshotCache) Subscribe(bus eventbus.EventBusInterface) {
	for _, eventType := range []string{
		eventbus.EventTypeSessionCreated,
		eventbus.EventTypeSessionExpired,
		eventbus.EventTypeSessionDeleted,
	} {
		bus.Subscribe(eventType, c.HandleSessionEvent)
	}
}

// GetOrFetchSchema returns the cached schema of objectType or fetches it.
func (c *SnapshotCache) GetOrFetchSchema(ctx context.Context, sessionID string, portal model.Portal, objectType string, fetch repository.SchemaFetchFunc) (model.ObjectSchema, error) {
	return getOrFetch(ctx, c, sessionID, portal, SchemaKey(objectType), "schema", fetch, false)
}

// GetOrFetchCatalog returns the cached object catalog or fetches it.
func (c *SnapshotCache) GetOrFetchCatalog(ctx context.Context, sessionID string, portal model.Portal, fetch repository.CatalogFetchFunc) ([]model.ObjectSchema, error) {
	return getOrFetch(ctx, c, sessionID, portal, catalogKey, "catalog", fetch, false)
}

// GetOrFetchAssociations returns the cached association types of a pair or
// fetches them.
func (c *SnapshotCache) GetOrFetchAssociations(ctx context.Context, sessionID string, portal model.Portal, from, to string, fetch repository.AssociationsFetchFunc) ([]model.AssociationType, error) {
	return getOrFetch(ctx, c, sessionID, portal, AssociationsKey(from, to), "associations", fetch, false)
}

// Refresh re-fetches a schema unconditionally and replaces the entry.
func (c *SnapshotCache) Refresh(ctx context.Context, sessionID string, portal model.Portal, objectType string, fetch repository.SchemaFetchFunc) (model.ObjectSchema, error) {
	return getOrFetch(ctx, c, sessionID, portal, SchemaKey(objectType), "schema", fetch, true)
}

// MarkStale flags entries for re-fetch on next access. An empty objectType
// flags every entry of the session. It returns the number of flagged entries.
func (c *SnapshotCache) MarkStale(sessionID, objectType string) (int, error) {
	p, err := c.partition(sessionID)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	marked := 0
	for k, e := range p.entries {
		if objectType != "" && k.key != SchemaKey(objectType) {
			continue
		}
		p.entries[k] = &cacheEntry{value: e.value, fetchedAt: e.fetchedAt, stale: true}
		marked++
	}
	return marked, nil
}

// Status reports when each entry of the session was fetched.
func (c *SnapshotCache) Status(sessionID string) (model.CacheStatus, error) {
	p, err := c.partition(sessionID)
	if err != nil {
		return model.CacheStatus{}, err
	}

	status := model.CacheStatus{
		SessionID: sessionID,
		PortalA:   make(map[string]model.CacheEntryInfo),
		PortalB:   make(map[string]model.CacheEntryInfo),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.entries {
		info := model.CacheEntryInfo{FetchedAt: e.fetchedAt, Stale: e.stale || c.expired(e)}
		if k.portal == model.PortalB {
			status.PortalB[k.key] = info
		} else {
			status.PortalA[k.key] = info
		}
	}
	return status, nil
}

// Sessions returns the number of open partitions.
func (c *SnapshotCache) Sessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.partitions)
}

func (c *SnapshotCache) partition(sessionID string) (*partition, error) {
	c.mu.RLock()
	p, ok := c.partitions[sessionID]
	c.mu.RUnlock()
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return p, nil
}

func (c *SnapshotCache) expired(e *cacheEntry) bool {
	return c.config.MaxAge > 0 && c.now().Sub(e.fetchedAt) > c.config.MaxAge
}

// getOrFetch is the shared lookup path. The partition lock is released before
// fetch runs and re-acquired to install the result.
func getOrFetch[T any](ctx context.Context, c *SnapshotCache, sessionID string, portal model.Portal, key, entity string, fetch func(context.Context) (T, error), force bool) (T, error) {
	var zero T

	p, err := c.partition(sessionID)
	if err != nil {
		return zero, err
	}
	k := entryKey{portal: portal, key: key}

	if !force {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return zero, model.ErrSessionNotFound
		}
		if e, ok := p.entries[k]; ok && !e.stale && !c.expired(e) {
			value, typed := e.value.(T)
			p.mu.Unlock()
			if typed {
				c.metrics.CacheLookup(entity, true)
				return value, nil
			}
		} else {
			p.mu.Unlock()
		}
		c.metrics.CacheLookup(entity, false)
	}

	value, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		c.log.Debugf("Discarding %s for purged session %s", key, sessionID)
		return value, nil
	}
	p.entries[k] = &cacheEntry{value: value, fetchedAt: c.now()}
	return value, nil
}
