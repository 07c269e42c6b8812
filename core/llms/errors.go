package llms

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind string

const (
	// Unreachable means no response was received from the backend.
	Unreachable ErrorKind = "unreachable"
	// MalformedResponse means the backend answered but no reply text could be
	// extracted from the answer.
	MalformedResponse ErrorKind = "malformed_response"
	// Timeout means the backend did not answer within the allowed time.
	Timeout ErrorKind = "timeout"
)

// EngineError is returned by response engines for every failed reply.
type EngineError struct {
	Kind ErrorKind
	Err  error
}

func NewEngineError(kind ErrorKind, err error) *EngineError {
	return &EngineError{Kind: kind, Err: err}
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("response engine: %s", e.Kind)
	}
	return fmt.Sprintf("response engine: %s: %v", e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsKind reports whether err is an [EngineError] of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var engineErr *EngineError
	return errors.As(err, &engineErr) && engineErr.Kind == kind
}

// TransportError classifies an error returned while sending a request, before
// any response was read.
func TransportError(err error) *EngineError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewEngineError(Timeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewEngineError(Timeout, err)
	}
	return NewEngineError(Unreachable, err)
}
