package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := NewError(ErrCodeDuplicateKey, "email already registered", errors.New("driver detail"))

	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestErrorIsThroughWrapping(t *testing.T) {
	inner := NewError(ErrCodeNotFound, "profile not found", nil)
	wrapped := fmt.Errorf("loading profile: %w", inner)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(ErrCodeDatabase, "query failed", cause)

	assert.True(t, errors.Is(err, cause))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: profile not found", NewError(ErrCodeNotFound, "profile not found", nil).Error())
	assert.Equal(t, "NOT_FOUND", (&Error{Code: ErrCodeNotFound}).Error())
}

func TestNotImplemented(t *testing.T) {
	err := NotImplemented("VectorSearch")

	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "VectorSearch")
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, ErrCodeDatabase, CodeOf(errors.New("plain")))
}
