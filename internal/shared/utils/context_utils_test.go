package utils

import (
	"context"
	"testing"

	"portal-compare/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
)

func TestGetSetContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req1")
	ctx = WithSessionID(ctx, "sess1")
	ctx = WithPortal(ctx, "a")
	ctx = WithComponent(ctx, "componentA")
	ctx = WithOperation(ctx, "opX")

	requestID, err := GetRequestIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "req1", requestID)

	sessionID, err := GetSessionIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "sess1", sessionID)

	assert.Equal(t, "a", ctx.Value(contextkeys.PortalKey))
	assert.Equal(t, "componentA", ctx.Value(contextkeys.ComponentKey))
	assert.Equal(t, "opX", ctx.Value(contextkeys.OperationKey))
}

func TestGetFromContext_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := GetRequestIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrRequestIDNotFound)

	_, err = GetSessionIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrSessionIDNotFound)

	ctx = context.WithValue(ctx, contextkeys.SessionIDKey, 42)
	_, err = GetSessionIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrSessionIDNotString)
}
