/* apperr.go
 * Contains the error type returned by the service layer. Each error carries a client facing message and an
 * HTTP-like status code which is exposed to GraphQL clients through the error extensions
 * Authors: Zachary Bower
 */

package apperr

import (
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
)

// Error is a client facing failure with a status code
type Error struct {
	Message string
	Code    int
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Extensions is read by graphql-go when the error is returned from a resolver
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":   e.Code,
		"status": http.StatusText(e.Code),
	}
}

// New returns an error with the given message and code
func New(message string, code int) *Error {
	return &Error{Message: message, Code: code}
}

// Wrap keeps cause (with an eris stack) behind a client facing message
// Preconditions: Receives the underlying error, the message to show the client and a status code
// Postconditions: Returns an *Error whose Unwrap chain reaches cause, or nil when cause is nil
func Wrap(cause error, message string, code int) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Message: message, Code: code, cause: eris.Wrap(cause, message)}
}

// Internal hides cause behind a generic 500 message
func Internal(cause error) *Error {
	return Wrap(cause, "Internal server error", http.StatusInternalServerError)
}

func BadRequest(message string) *Error { return New(message, http.StatusBadRequest) }
func NotFound(message string) *Error { return New(message, http.StatusNotFound) }
func Forbidden(message string) *Error { return New(message, http.StatusForbidden) }
func Conflict(message string) *Error { return New(message, http.StatusConflict) }
func Unauthorized(message string) *Error { return New(message, http.StatusUnauthorized) }

// ErrNotAuthenticated is returned by every protected operation when no identity is present
var ErrNotAuthenticated = Unauthorized("Not authenticated!")

// CodeOf returns the status code carried by err, or 500 for anything else
func CodeOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Stack formats the eris stack of err for logging
func Stack(err error) string {
	return eris.ToString(err, true)
}
