package aggregate

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest marks failures caused by the caller's input.
	ErrBadRequest = errors.New("bad request")
	// ErrUpstreamUnavailable marks a backend that could not be reached or answered non-2xx.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ParseError names the query parameter that failed validation.
type ParseError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrBadRequest
}
