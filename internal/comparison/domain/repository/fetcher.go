package repository

import (
	"context"

	"portal-compare/internal/comparison/domain/model"
)

// MetadataFetcher reads metadata from a remote portal. Failures wrap
// model.ErrUpstreamAuth, model.ErrRateLimited, model.ErrUpstreamNotFound or
// model.ErrTransport.
type MetadataFetcher interface {
	FetchProperties(ctx context.Context, cred model.Credential, objectType string) ([]model.PropertyDefinition, error)
	FetchSchemas(ctx context.Context, cred model.Credential) ([]model.ObjectSchema, error)
	FetchAssociations(ctx context.Context, cred model.Credential, from, to string) ([]model.AssociationType, error)
}

// CredentialValidator is implemented by fetchers that can check a token
// before a session is created.
type CredentialValidator interface {
	ValidateCredential(ctx context.Context, cred model.Credential) error
}
