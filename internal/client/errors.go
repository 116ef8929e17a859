package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/starford/strength/internal/models"
)

// Transport operations, used in Error.Op.
const (
	OpGet    = "load card"
	OpList   = "load cards"
	OpIndex  = "load catalog"
	OpPatch  = "update card"
	OpCreate = "create card"
	OpDelete = "delete card"
)

// Error is returned by every failed transport call. StatusCode is zero when
// the request never produced an HTTP response.
type Error struct {
	Op         string
	Section    models.Section
	CardName   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var subject string
	switch {
	case e.CardName != "" && e.Section != "":
		subject = fmt.Sprintf("failed to %s %q in section %q", e.Op, e.CardName, e.Section)
	case e.Section != "":
		subject = fmt.Sprintf("failed to %s for section %q", e.Op, e.Section)
	case e.CardName != "":
		subject = fmt.Sprintf("failed to %s %q", e.Op, e.CardName)
	default:
		subject = "failed to " + e.Op
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", subject, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s, status %d: %s", subject, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s, status %d", subject, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *Error
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a transport error for a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether the server rejected the credential.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
