package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKey_String(t *testing.T) {
	key := contextKey("testKey")
	assert.Equal(t, "portal-compare context key testKey", key.String())
}

func TestContextKeys_Usage(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, RequestIDKey, "req-456")
	ctx = context.WithValue(ctx, SessionIDKey, "session-123")
	ctx = context.WithValue(ctx, PortalKey, "a")
	ctx = context.WithValue(ctx, ComponentKey, "component-logger")
	ctx = context.WithValue(ctx, OperationKey, "operation-compare")

	assert.Equal(t, "req-456", ctx.Value(RequestIDKey))
	assert.Equal(t, "session-123", ctx.Value(SessionIDKey))
	assert.Equal(t, "a", ctx.Value(PortalKey))
	assert.Equal(t, "component-logger", ctx.Value(ComponentKey))
	assert.Equal(t, "operation-compare", ctx.Value(OperationKey))
}
