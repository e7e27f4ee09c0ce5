package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable marks transport failures: the request may be retried.
var ErrUnavailable = errors.New("backend unavailable")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized covers both 401 and 403; the web client sends the user to
// the login page for either.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// HTTPStatus maps a backend error to the status the web tier answers with:
// auth failures become 401, other client errors pass through, everything
// else is a 502 the browser may retry.
func HTTPStatus(err error) int {
	switch s := StatusOf(err); {
	case s == http.StatusUnauthorized || s == http.StatusForbidden:
		return http.StatusUnauthorized
	case s >= 400 && s < 500:
		return s
	}
	return http.StatusBadGateway
}
