package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesCode(t *testing.T) {
	err := StateConflict("Booking is pending, expected accepted", nil)
	assert.True(t, Is(err, "STATE_CONFLICT"))
	assert.False(t, Is(err, "NOT_FOUND"))
	assert.False(t, Is(nil, "STATE_CONFLICT"))
	assert.False(t, Is(fmt.Errorf("plain"), "STATE_CONFLICT"))
}

func TestIsSeesThroughWrapping(t *testing.T) {
	inner := NotFound("Booking", nil)
	wrapped := fmt.Errorf("loading booking: %w", inner)
	assert.True(t, Is(wrapped, "NOT_FOUND"))
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("User", nil).Status)
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad", nil).Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("no", nil).Status)
	assert.Equal(t, http.StatusForbidden, Forbidden("no", nil).Status)
	// State conflicts are client errors, not 409s: the client acted on a
	// stale view of the resource.
	assert.Equal(t, http.StatusBadRequest, StateConflict("stale", nil).Status)
	assert.Equal(t, http.StatusBadGateway, ExternalService("down", nil).Status)
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := Internal("Failed to save", cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, "INTERNAL_ERROR: Failed to save", err.Error())
}
