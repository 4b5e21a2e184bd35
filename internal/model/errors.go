package model

import (
	"errors"
	"fmt"
)

// Error kinds shared across the pipeline. Components wrap these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with errors.Is
// without depending on message text.
var (
	// ErrValidation marks bad input rejected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrEnumeration marks an unrecoverable tree listing or walk failure.
	ErrEnumeration = errors.New("enumeration failed")
	// ErrResolution marks failure to obtain a direct download URL from any root.
	ErrResolution = errors.New("no direct url obtainable")
	// ErrNotFound marks a missing product or a missing local file.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited marks an HTTP 429. It is retried internally and only
	// surfaces (wrapped in an APIError) once the retry budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrProtocol marks a response body that could not be parsed.
	ErrProtocol = errors.New("malformed response")
	// ErrTransport marks a network-level failure before a response arrived.
	ErrTransport = errors.New("transport error")
	// ErrUnsupported marks operations the remote share does not allow
	// without OAuth write access.
	ErrUnsupported = errors.New("unsupported without OAuth token")
)

// APIError is a non-2xx response from an external API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, truncateBody(e.Body, 200))
}

// RateLimited reports whether the error is (or wraps) an HTTP 429.
func (e *APIError) RateLimited() bool { return e.Status == 429 }

func truncateBody(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
