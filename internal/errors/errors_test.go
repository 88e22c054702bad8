package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("poll needs 2 to 5 options")

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", ValidationError("bad request", errSentinel), TypeValidation, http.StatusBadRequest},
		{"not found", NotFoundError("poll not found"), TypeNotFound, http.StatusNotFound},
		{"conflict", ConflictError("poll already ended"), TypeConflict, http.StatusConflict},
		{"internal", InternalError("boom", nil), TypeInternal, http.StatusInternalServerError},
		{"unavailable", UnavailableError("store down", errSentinel), TypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not_found: poll not found", NotFoundError("poll not found").Error())
	assert.Equal(t, "validation: invalid poll: poll needs 2 to 5 options", ValidationError("invalid poll", errSentinel).Error())
}

func TestUnwrap_MatchesSentinel(t *testing.T) {
	err := ValidationError("invalid poll", errSentinel)

	assert.ErrorIs(t, err, errSentinel)
	assert.ErrorIs(t, fmt.Errorf("create: %w", err), errSentinel)
	assert.Nil(t, NotFoundError("x").Unwrap())
}

func TestWithContext(t *testing.T) {
	err := NotFoundError("poll not found").
		WithContext("poll_id", "123456").
		WithContext("owner_id", "abc")

	assert.Equal(t, map[string]any{"poll_id": "123456", "owner_id": "abc"}, err.Context)

	bare := &Error{Type: TypeConflict}
	bare.WithContext("k", 1)
	assert.Equal(t, 1, bare.Context["k"])
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := ConflictError("already ended")
	assert.Same(t, original, AsStructuredError(fmt.Errorf("wrapped: %w", original)))

	plain := errors.New("disk full")
	got := AsStructuredError(plain)
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
	assert.ErrorIs(t, got, plain)
}

func TestTypeOfAndIsType(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.Equal(t, TypeInternal, TypeOf(errors.New("plain")))
	assert.Equal(t, TypeNotFound, TypeOf(fmt.Errorf("get: %w", NotFoundError("missing"))))

	assert.True(t, IsType(UnavailableError("down", nil), TypeUnavailable))
	assert.False(t, IsType(errors.New("plain"), TypeInternal))
}

func TestToResponse(t *testing.T) {
	err := NotFoundError("poll not found").WithContext("poll_id", "123456")

	resp := err.ToResponse()

	assert.Equal(t, "poll not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, map[string]any{"poll_id": "123456"}, resp.Context)
}
