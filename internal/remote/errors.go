package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the token or data URL is missing.
	ErrNotConfigured = errors.New("remote API URLs are not configured")
	// ErrAuthExpired means a freshly issued token was rejected as well.
	ErrAuthExpired = errors.New("remote API rejected credentials after re-authentication")
	// ErrUnrecognizedShape means the response body matched none of the known layouts.
	ErrUnrecognizedShape = errors.New("unrecognized remote response shape")
)

// FetchError reports a failed call to the remote API. Status is zero for
// transport failures.
type FetchError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s %s: status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
