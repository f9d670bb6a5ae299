package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("update member: %w", NotFound("member %q not found", "mother"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, `update member: member "mother" not found`, err.Error())
}

func TestValidationField(t *testing.T) {
	err := Validation("fields", "unknown field %q", "nickname")

	assert.Equal(t, "fields", FieldOf(err))
	assert.Equal(t, `fields: unknown field "nickname"`, err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestStorageWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage(cause, "put object")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Equal(t, "put object: connection refused", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Empty(t, FieldOf(errors.New("boom")))
}
