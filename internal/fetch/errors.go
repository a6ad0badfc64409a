package fetch

import (
	"errors"
	"fmt"
)

// Errors returned by the resolver client.
var (
	// ErrNotFound indicates the identifier resolves to no known record.
	ErrNotFound = errors.New("citation not found")

	// ErrNetwork indicates a connectivity or server failure.
	ErrNetwork = errors.New("network error")

	// ErrTimeout indicates the request deadline passed.
	ErrTimeout = errors.New("request timed out")
)

// StatusError carries an unexpected HTTP status from a resolver service.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// IsNotFound reports whether the error means the record does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == 404
}

// IsNetworkError reports whether the error is a transport-level failure,
// including timeouts.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
