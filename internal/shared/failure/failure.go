// Package failure defines the error kinds a pipeline run can end with.
//
// Every fatal condition travels up as a *Error to a single top-level handler,
// which tears the pipeline down once and turns the kind into an exit status.
// Kinds are themselves errors, so callers can match them with errors.Is:
//
//	if errors.Is(err, failure.Protocol) { ... }
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal condition.
type Kind int

const (
	Unknown Kind = iota
	// Usage is a bad command line, detected before any resource exists.
	Usage
	// Resource is a channel, process or buffer that could not be created.
	Resource
	// IO is a read, write or transfer that failed with anything but would-block.
	IO
	// Protocol is a broken supervisor invariant, such as out-of-order retirement.
	Protocol
	// SupervisorLost is a worker finding that its supervisor is gone.
	SupervisorLost
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage"
	case Resource:
		return "resource"
	case IO:
		return "io"
	case Protocol:
		return "protocol"
	case SupervisorLost:
		return "supervisor_lost"
	default:
		return "unknown"
	}
}

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// NoStage marks an error that is not attributed to a pipeline stage.
const NoStage = -1

// Error is a classified failure.
type Error struct {
	Kind  Kind
	Stage int
	Op    string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Stage != NoStage {
		msg = fmt.Sprintf("stage %d: %s", e.Stage, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind of e against a Kind target.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New returns a failure that is not tied to a stage.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Stage: NoStage, Op: op, Err: err}
}

// Stage returns a failure attributed to a pipeline stage.
func Stage(kind Kind, stage int, op string, err error) error {
	return &Error{Kind: kind, Stage: stage, Op: op, Err: err}
}

// KindOf extracts the kind of err, or Unknown when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Unknown
}
