package repository

import (
	"context"

	"portal-compare/internal/comparison/domain/model"
)

// SessionStore owns the lifecycle of comparison sessions. Unknown or expired
// sessions fail with model.ErrSessionNotFound.
type SessionStore interface {
	Create(ctx context.Context, credA, credB model.Credential, nameA, nameB string) (*model.Session, error)
	// Get returns a copy of the session; it does not refresh last access.
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Touch(ctx context.Context, sessionID string) error
	SetCustomMapping(ctx context.Context, sessionID, keyA, keyB string) error
	RemoveCustomMapping(ctx context.Context, sessionID, keyA string) error
	// ApplyAutoMatches installs auto entries and never overwrites manual ones.
	// It returns the number of entries installed.
	ApplyAutoMatches(ctx context.Context, sessionID string, matches []model.Match) (int, error)
	Delete(ctx context.Context, sessionID string) error
	ExpireSweep(ctx context.Context) int
	Count() int
	Close() error
}
