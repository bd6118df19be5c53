package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnmappedCustomObject is returned when a custom object has no mapping yet.
	ErrUnmappedCustomObject = errors.New("custom object is not mapped")
	// ErrInvalidReference is returned when an object type or property does not exist.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidFilter is returned for filter expressions that do not compile.
	ErrInvalidFilter = errors.New("invalid filter expression")
	// ErrInvalidMapping is returned for empty or malformed mapping keys.
	ErrInvalidMapping = errors.New("invalid custom object mapping")

	ErrUpstreamAuth     = errors.New("upstream authentication failed")
	ErrRateLimited      = errors.New("upstream rate limit exceeded")
	ErrUpstreamNotFound = errors.New("upstream resource not found")
	ErrTransport        = errors.New("upstream transport error")
)

// UpstreamFetchError attributes a fetch failure to the portal it came from.
type UpstreamFetchError struct {
	Portal     Portal
	PortalName string
	Operation  string
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	name := e.PortalName
	if name == "" {
		name = string(e.Portal)
	}
	return fmt.Sprintf("portal %s: %s: %v", name, e.Operation, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// InvalidReferenceError names the object type or property that was not found.
type InvalidReferenceError struct {
	Portal     Portal
	ObjectType string
	Property   string
	Err        error
}

func (e *InvalidReferenceError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("invalid reference: property %q not found on %s in portal %s", e.Property, e.ObjectType, e.Portal)
	}
	return fmt.Sprintf("invalid reference: object type %q not found in portal %s", e.ObjectType, e.Portal)
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

func (e *InvalidReferenceError) Unwrap() error {
	return e.Err
}

// UnmappedError reports the portal A key that lacks a mapping.
func UnmappedError(keyA string) error {
	return fmt.Errorf("%w: %s", ErrUnmappedCustomObject, keyA)
}

// IsUpstream reports whether err is one of the fetch failures.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamAuth) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUpstreamNotFound) ||
		errors.Is(err, ErrTransport)
}
