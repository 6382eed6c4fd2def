// Package httpx holds the JSON envelope shared by every handler: success
// bodies carry "success": true, failures {"success": false, "message"}.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error is an error that knows which HTTP status it maps to.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error { return NewError(http.StatusBadRequest, message) }
func NotFound(message string) *Error   { return NewError(http.StatusNotFound, message) }

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as a failure envelope. Errors that are not an
// *Error become a 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	var he *Error
	if !errors.As(err, &he) {
		he = NewError(http.StatusInternalServerError, "Internal Server Error")
	}
	JSON(w, he.Status, map[string]any{
		"success": false,
		"message": he.Message,
	})
}

// Decode reads a JSON body into dst. Any decoding problem is a 400.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return BadRequest("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return BadRequest("Request body is required")
		}
		return BadRequest("Invalid request body")
	}
	return nil
}
