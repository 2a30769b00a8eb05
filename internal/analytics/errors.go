package analytics

import (
	"errors"
	"fmt"
)

// ErrUpstream marks failures of a storage or cache dependency.
var ErrUpstream = errors.New("upstream failure")

// ErrInvalidRequest is returned for requests the runner cannot serve.
var ErrInvalidRequest = errors.New("invalid request")

// UpstreamError wraps a failed dependency call with the operation name.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports ErrUpstream as a match so callers can test with errors.Is.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
