package gateway

import (
	"errors"
	"fmt"
)

// ErrTimeout reports that the upstream did not answer within the configured
// deadline. Handlers map it to 504 so a slow backend is distinguishable from
// a broken one.
var ErrTimeout = errors.New("upstream request timed out")

// UpstreamError is a non-2xx answer from the backend. Status and Message are
// surfaced to the frontend as-is, already normalized to the single
// {"error": string} envelope.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport-level failure: connection refused, DNS,
// reset mid-body. The upstream never produced a status.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "upstream unreachable: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
