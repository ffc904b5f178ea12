package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "blueprint not registered")
	assert.Equal(t, "not_found: blueprint not registered", err.Error())
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.Nil(t, errors.Unwrap(err))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load entry")

	require.True(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCode_OutermostWins(t *testing.T) {
	inner := New(CodeNotFound, "missing row")
	outer := Wrap(inner, CodeInternal, "lookup failed")

	// Services re-code store errors; the surfaced code is the outer one.
	assert.True(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(outer, CodeNotFound))
}

func TestHasCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("deploy: %w", New(CodeConflict, "blueprint is not active"))
	assert.True(t, HasCode(err, CodeConflict))
	assert.True(t, Is(err, CodeConflict))
}

func TestHasCode_PlainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "empty batch")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("opaque")))
}
