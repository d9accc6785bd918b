package types

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an HTTP-level failure from a venue gateway. Status 0 marks
// transport errors (timeout, connection reset) with no HTTP response.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}

	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// Transient reports whether a retry on a later scan could succeed. 4xx
// responses indicate a malformed request and are not transient.
func (e *APIError) Transient() bool {
	return e.Status == 0 || e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// IsTransientAPIError reports whether err wraps a transient APIError.
func IsTransientAPIError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}

	return false
}
