package model

import "time"

// MappingSource records who produced a custom object mapping entry.
type MappingSource string

const (
	MappingSourceManual MappingSource = "manual"
	MappingSourceAuto   MappingSource = "auto"
)

// MappingEntry maps one portal A custom object key to its portal B counterpart.
type MappingEntry struct {
	KeyB       string        `json:"key_b"`
	Source     MappingSource `json:"source"`
	Confidence float64       `json:"confidence"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Match is one auto-match proposal produced by the entity matcher.
type Match struct {
	KeyA       string  `json:"key_a"`
	KeyB       string  `json:"key_b"`
	NameA      string  `json:"name_a"`
	NameB      string  `json:"name_b"`
	Confidence float64 `json:"confidence"`
}

// Session holds the two portals being compared and the custom object mapping
// curated for them. It lives only in memory.
type Session struct {
	ID                  string                  `json:"id"`
	PortalA             PortalRef               `json:"portal_a"`
	PortalB             PortalRef               `json:"portal_b"`
	CreatedAt           time.Time               `json:"created_at"`
	LastAccessedAt      time.Time               `json:"last_accessed_at"`
	CustomObjectMapping map[string]MappingEntry `json:"custom_object_mapping"`
}

// Portal returns the reference of one side.
func (s *Session) Portal(p Portal) PortalRef {
	if p == PortalB {
		return s.PortalB
	}
	return s.PortalA
}

// MappedKey returns the portal B key mapped to keyA.
func (s *Session) MappedKey(keyA string) (string, bool) {
	entry, ok := s.CustomObjectMapping[CanonicalObjectKey(keyA)]
	if !ok {
		return "", false
	}
	return entry.KeyB, true
}

// ExpiredAt reports whether the session is idle beyond ttl at now.
func (s *Session) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastAccessedAt) > ttl
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	c := *s
	c.CustomObjectMapping = make(map[string]MappingEntry, len(s.CustomObjectMapping))
	for k, v := range s.CustomObjectMapping {
		c.CustomObjectMapping[k] = v
	}
	return &c
}

// CacheStatus lists when each cached entity of a session was fetched.
type CacheStatus struct {
	SessionID string                    `json:"session_id"`
	PortalA   map[string]CacheEntryInfo `json:"portal_a"`
	PortalB   map[string]CacheEntryInfo `json:"portal_b"`
}

// CacheEntryInfo describes one cached entity.
type CacheEntryInfo struct {
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
}
