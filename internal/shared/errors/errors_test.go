package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "name").WithComponent("test-component")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "test-component", err.Component)
	assert.Equal(t, "name", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode)
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewUpstreamError("portal failed").WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, "portal failed: boom", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.HTTPCode)
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	assert.Nil(t, ve.ToAppError())
	ve.Add("field1", "must be set", "")
	assert.True(t, ve.HasErrors())
	assert.Equal(t, "validation failed: must be set", ve.Error())
	appErr := ve.ToAppError()
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
}

func TestAsAppError(t *testing.T) {
	nf := NewNotFoundError("session")
	assert.Equal(t, "session not found", nf.Message)

	found, ok := AsAppError(fmt.Errorf("wrapped: %w", nf))
	require.True(t, ok)
	assert.Same(t, nf, found)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
