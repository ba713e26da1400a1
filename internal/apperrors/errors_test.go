package apperrors

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNew_WrapsKind(t *testing.T) {
	err := New(ErrAlreadyExists, "User already exists")

	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "User already exists", err.Error())
}

func TestDetail_SurvivesWrapping(t *testing.T) {
	base := New(ErrValidation, "code is required")

	for name, err := range map[string]error{
		"fmt":        fmt.Errorf("build payload: %w", base),
		"pkg/errors": pkgerrors.Wrap(base, "build payload"),
	} {
		t.Run(name, func(t *testing.T) {
			detail, ok := Detail(err)
			assert.True(t, ok)
			assert.Equal(t, "code is required", detail)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestDetail_PlainError(t *testing.T) {
	_, ok := Detail(errors.New("boom"))
	assert.False(t, ok)
}
