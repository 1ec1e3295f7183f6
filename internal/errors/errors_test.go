package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomy(t *testing.T) {
	tests := []struct {
		err       error
		code      Code
		status    int
		shouldLog bool
	}{
		{NotFound("page x"), CodeNotFound, http.StatusNotFound, false},
		{Validation("bad input"), CodeValidation, http.StatusBadRequest, false},
		{Unauthorized("who?"), CodeUnauthorized, http.StatusUnauthorized, false},
		{Forbidden("no"), CodeForbidden, http.StatusForbidden, false},
		{Conflict("dup"), CodeConflict, http.StatusConflict, false},
		{Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError, true},
		{FileStorage("disk", errors.New("cause")), CodeFileStorage, http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, CodeOf(tt.err))
		assert.Equal(t, tt.status, HTTPStatus(tt.err))
		assert.Equal(t, tt.shouldLog, ShouldLog(tt.err))
	}
}

func TestUnknownErrors(t *testing.T) {
	err := errors.New("raw failure")
	assert.Equal(t, CodeUnknown, CodeOf(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.True(t, ShouldLog(err))
	assert.Equal(t, "internal server error", PublicMessage(err))
}

func TestWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("write blob", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "write blob", PublicMessage(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, CodeInternal, CodeOf(wrapped))
	assert.True(t, Is(wrapped, CodeInternal))
	assert.False(t, Is(wrapped, CodeNotFound))
}
