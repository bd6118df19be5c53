package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "portal-compare context key " + string(c)
}

// RequestIDKey is the key for the per-request correlation id in context.Context
const RequestIDKey = contextKey("requestID")

// SessionIDKey is the key for the comparison session id in context.Context
const SessionIDKey = contextKey("sessionID")

// PortalKey is the key for the portal side ("a" or "b") an operation targets
const PortalKey = contextKey("portal")

// ComponentKey is the key for the component name used in log fields
const ComponentKey = contextKey("component")

// OperationKey is the key for the operation name used in log fields
const OperationKey = contextKey("operation")
