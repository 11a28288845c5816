package mimecast

import (
	"errors"
	"fmt"
)

// Sentinel errors for bare failure states.
var (
	// ErrNotConnected indicates no session has been established.
	ErrNotConnected = errors.New("mimecast: not connected")

	// ErrTokenExpired indicates the session's bearer token has expired.
	// The caller must reconnect; tokens are not refreshed transparently.
	ErrTokenExpired = errors.New("mimecast: token expired, reconnect required")

	// ErrInvalidFilter indicates the caller supplied contradictory search
	// filters.
	ErrInvalidFilter = errors.New("mimecast: invalid filter combination")

	// ErrPageLimit indicates a pagination loop exceeded the configured
	// maximum page count.
	ErrPageLimit = errors.New("mimecast: page limit exceeded")
)

// UnknownRegionError indicates a region name with no base URL mapping.
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("mimecast: unknown region %q", e.Region)
}

// AuthError indicates the token request failed. No session state is
// retained when this error is returned.
type AuthError struct {
	// StatusCode is the HTTP status of the token response, or zero when
	// the request never completed.
	StatusCode int
	// Body is the raw token response body, if any.
	Body string
	// Err is the underlying cause, if any.
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mimecast: authentication failed: %v", e.Err)
	}
	return fmt.Sprintf("mimecast: authentication failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError indicates a network-level failure (DNS, TLS, connection
// reset, timeout) before any HTTP status was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mimecast: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError indicates a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("mimecast: request failed with status %d: %s", e.StatusCode, e.Body)
}

// LogicalError indicates a 2xx response whose envelope reported
// success=false. The fail entries carry the provider's diagnostic detail.
type LogicalError struct {
	Fails []FailDetail
}

func (e *LogicalError) Error() string {
	if len(e.Fails) == 0 {
		return "mimecast: request reported failure"
	}
	return fmt.Sprintf("mimecast: request reported failure: %s", e.Fails[0].Message())
}

// PaginationError indicates a paginated request aborted part-way through.
// Records already accumulated are discarded, never returned as a success
// value; Records reports how many had been collected for diagnostics.
type PaginationError struct {
	// Path is the resource path being paginated.
	Path string
	// Pages is the number of pages fetched successfully before the failure.
	Pages int
	// Records is the number of records accumulated before the failure.
	Records int
	// Err is the underlying cause.
	Err error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("mimecast: paginated request %s failed after %d page(s), %d record(s): %v",
		e.Path, e.Pages, e.Records, e.Err)
}

func (e *PaginationError) Unwrap() error { return e.Err }
