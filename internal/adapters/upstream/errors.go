package upstream

import "errors"

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("upstream: not found")
	// ErrUpstreamStatus is returned for any other non-2xx answer.
	ErrUpstreamStatus = errors.New("upstream: unexpected status")
	// ErrDecode is returned when the body is not a list of records.
	ErrDecode = errors.New("upstream: malformed body")
	// ErrNotConfigured is returned when no base URL was set.
	ErrNotConfigured = errors.New("upstream: base url not configured")
)
