package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "caption").WithComponent("content-mutator")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "content-mutator", err.Component)
	assert.Equal(t, "caption", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode)
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	err := NewNotFoundError("record").WithCause(ErrRecordNotFound)
	assert.Equal(t, ErrRecordNotFound, err.Unwrap())
	assert.True(t, IsNotFound(err))
}

func TestTypeChecks(t *testing.T) {
	nf := NewNotFoundError("record")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsValidation(nf))

	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsAuthentication(NewAuthenticationError("bad")))
	assert.True(t, IsAuthorization(NewAuthorizationError("refused")))
	assert.True(t, IsConfiguration(NewConfigurationError("missing namespace")))
}

func TestPermissionDenied_ScopedToCollection(t *testing.T) {
	err := NewPermissionDeniedError("blog")
	assert.True(t, IsPermissionDenied(err))
	assert.Equal(t, "permission denied for blog", err.Message)
	assert.Equal(t, "blog", err.Details["collection"])
	assert.Equal(t, http.StatusForbidden, err.HTTPCode)
}

func TestIsNotFound_Sentinels(t *testing.T) {
	assert.True(t, IsNotFound(ErrRecordNotFound))
	assert.True(t, IsNotFound(ErrUserNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrRecordNotFound)))
	assert.False(t, IsNotFound(ErrUnknownCollection))
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	assert.False(t, ve.HasErrors())
	ve.Add("caption", "must be set", "")
	assert.True(t, ve.HasErrors())

	appErr := ve.ToAppError()
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
}

func TestWrapError(t *testing.T) {
	wrapped := WrapError(ErrRecordNotFound, "loading featured photo")
	assert.Contains(t, wrapped.Error(), "loading featured photo")
	assert.True(t, IsNotFound(wrapped))
}
