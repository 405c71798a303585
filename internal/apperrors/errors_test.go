package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAndMessage(t *testing.T) {
	err := New(ErrCodeNotFound, "invoice missing")

	assert.Equal(t, ErrCodeNotFound, Code(err))
	assert.Equal(t, "invoice missing", Message(err))
	assert.True(t, IsCode(err, ErrCodeNotFound))
	assert.False(t, IsCode(err, ErrCodeConflict))
}

func TestUncodedErrorDefaultsToInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, ErrCodeInternal, Code(err))
	assert.Equal(t, "boom", Message(err))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeDependencyUnavailable, "safe limit check failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeDependencyUnavailable, Code(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeSurvivesWrapping(t *testing.T) {
	inner := NotFound("invoice", "INV-1")
	outer := fmt.Errorf("lookup: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeNotFound))
	assert.Equal(t, `invoice "INV-1" not found`, Message(outer))
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("status", "unknown value")

	assert.Equal(t, ErrCodeInvalidInput, Code(err))
	assert.Equal(t, "status: unknown value", Message(err))
}
