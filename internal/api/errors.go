package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches a 401 response (missing or wrong API key)
	ErrUnauthorized = errors.New("invalid api key")
	// ErrNotFound matches a 404 response (unknown team or workflow)
	ErrNotFound = errors.New("not found")
)

// HTTPError is returned for non-2xx responses on endpoints that treat them
// as failures. Its message is exactly "HTTP <code>".
type HTTPError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Is lets errors.Is match the sentinel errors by status code
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
