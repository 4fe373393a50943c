package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{name: "not found", err: NotFound("company not found"), want: http.StatusNotFound},
		{name: "validation", err: Validation("invalid tenant configuration"), want: http.StatusBadRequest},
		{name: "unavailable", err: Unavailable("lead store unavailable", errors.New("timeout")), want: http.StatusServiceUnavailable},
		{name: "unknown kind", err: New(KindUnknown, "boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("distribute: %w", Unavailable("lead store unavailable", cause).WithOp("list companies"))

	assert.True(t, Is(err, KindUnavailable))
	assert.False(t, Is(err, KindNotFound))
	assert.ErrorIs(t, err, cause)

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "list companies: lead store unavailable: connection refused", appErr.Error())
}

func TestGetKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, GetKind(errors.New("plain")))
	assert.Equal(t, KindUnknown, GetKind(nil))
}
