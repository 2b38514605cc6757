package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the catalog has no such resource.
	ErrNotFound = errors.New("catalog: not found")
	// ErrMalformed is returned when a response body is not the JSON we expect.
	ErrMalformed = errors.New("catalog: malformed response")
)

// HTTPError reports a non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("catalog: GET %s: status %d", e.URL, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
