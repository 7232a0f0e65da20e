package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_UsesTemplate(t *testing.T) {
	err := NewError(ErrRequestFailed)

	assert.Equal(t, ErrRequestFailed, err.Code)
	assert.Equal(t, "Request failed", err.Error())
	assert.Zero(t, err.Status)
}

func TestNewError_FormatsDetails(t *testing.T) {
	err := NewError(ErrRouteNotFound, "/nowhere")

	assert.Equal(t, "No route matches /nowhere", err.Error())
}

func TestNewError_UnknownCodeFallsBack(t *testing.T) {
	err := NewError(424242)

	assert.Equal(t, ErrUnknown, err.Code)
	assert.NotEmpty(t, err.Message)
}

func TestNewError_ReturnsCopy(t *testing.T) {
	a := NewError(ErrRequestFailed).WithMessage("bad credentials")
	b := NewError(ErrRequestFailed)

	assert.Equal(t, "bad credentials", a.Error())
	assert.Equal(t, "Request failed", b.Error())
}

func TestWithMessage_IgnoresEmpty(t *testing.T) {
	err := NewError(ErrRequestFailed).WithMessage("")

	assert.Equal(t, "Request failed", err.Error())
}

func TestIs_WalksChain(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("login: %w", NewError(ErrRequestFailed).WithStatus(502).WithCause(cause))

	assert.True(t, Is(err, ErrRequestFailed))
	assert.False(t, Is(err, ErrInvalidLoginInput))
	assert.ErrorIs(t, err, cause)

	var customErr *CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, 502, customErr.Status)
}

func TestIs_PlainError(t *testing.T) {
	assert.False(t, Is(errors.New("boom"), ErrUnknown))
	assert.False(t, Is(nil, ErrUnknown))
}
