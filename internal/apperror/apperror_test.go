package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:       http.StatusBadRequest,
		Authentication:   http.StatusUnauthorized,
		PermissionDenied: http.StatusForbidden,
		NotFound:         http.StatusNotFound,
		Conflict:         http.StatusConflict,
		Internal:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, want, New(kind, "x", nil).HTTPStatus())
		})
	}
}

func TestWrappedErrorsRemainInspectable(t *testing.T) {
	root := errors.New("disk full")
	err := fmt.Errorf("saving: %w", E("save failed", root))

	ae, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, Internal, ae.Kind)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "save failed: disk full", ae.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(Missing("movie not found")))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.True(t, Is(Forbidden("no"), PermissionDenied))
	assert.False(t, Is(nil, PermissionDenied))
}

func TestFieldError(t *testing.T) {
	err := Field("username", "already taken")
	assert.Equal(t, Validation, err.Kind)
	assert.Equal(t, "validation failed", err.Message)
	assert.Equal(t, map[string]string{"username": "already taken"}, err.Fields)
}
