/* apperr_test.go
 * Contains unit tests for apperr.go
 * Authors: Zachary Bower
 */

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Extensions(t *testing.T) {
	err := Conflict("User already exists")

	assert.Equal(t, "User already exists", err.Error())
	assert.Equal(t, http.StatusConflict, err.Code)
	assert.Equal(t, http.StatusConflict, err.Extensions()["code"])
	assert.Equal(t, "Conflict", err.Extensions()["status"])
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, "Failed to load user", http.StatusInternalServerError)

	require.NotNil(t, err)
	assert.Equal(t, "Failed to load user", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, Stack(err), "connection reset")
}

func TestWrap_NilCause(t *testing.T) {
	assert.Nil(t, Wrap(nil, "unused", http.StatusBadRequest))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, CodeOf(NotFound("missing")))
	assert.Equal(t, http.StatusUnauthorized, CodeOf(fmt.Errorf("outer: %w", ErrNotAuthenticated)))
	assert.Equal(t, http.StatusInternalServerError, CodeOf(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, CodeOf(Internal(errors.New("db down"))))
}
