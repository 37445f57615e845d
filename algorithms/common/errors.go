package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can decide whether to retry,
// skip a file or give up on an analyzer entirely
type ErrorKind string

const (
	KindInvalidParameter ErrorKind = "INVALID_PARAMETER"
	KindResource         ErrorKind = "RESOURCE_ERROR"
	KindData             ErrorKind = "DATA_ERROR"
)

// Sentinels for errors.Is checks
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrResource         = errors.New("resource error")
	ErrData             = errors.New("data error")
)

// Error carries the offending value and the violated constraint so a failure
// can be diagnosed without re-deriving analyzer state
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Op         string    `json:"op"`
	Value      any       `json:"value,omitempty"`
	Constraint string    `json:"constraint,omitempty"`
	Err        error     `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.sentinel().Error())

	if e.Constraint != "" {
		msg += fmt.Sprintf(": got %v, want %s", e.Value, e.Constraint)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindInvalidParameter:
		return ErrInvalidParameter
	case KindResource:
		return ErrResource
	default:
		return ErrData
	}
}

// InvalidParameter reports a malformed configuration value
func InvalidParameter(op string, value any, constraint string) *Error {
	return &Error{
		Kind:       KindInvalidParameter,
		Op:         op,
		Value:      value,
		Constraint: constraint,
	}
}

// Resource reports a failure to allocate buffers or build a transform plan
func Resource(op string, err error) *Error {
	return &Error{
		Kind: KindResource,
		Op:   op,
		Err:  err,
	}
}

// Data reports malformed or empty sample data
func Data(op string, value any, constraint string) *Error {
	return &Error{
		Kind:       KindData,
		Op:         op,
		Value:      value,
		Constraint: constraint,
	}
}

// WrapData reports a sample source that could not be read at all
func WrapData(op string, err error) *Error {
	return &Error{
		Kind: KindData,
		Op:   op,
		Err:  err,
	}
}
