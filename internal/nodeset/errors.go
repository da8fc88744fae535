package nodeset

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes node-set errors.
type ErrorCode string

const (
	// ErrCodeUnknown indicates a reference to a node set that is not in the
	// registry.
	ErrCodeUnknown ErrorCode = "UNKNOWN_NODE_SET"

	// ErrCodeDuplicate indicates two definitions with the same name.
	ErrCodeDuplicate ErrorCode = "DUPLICATE_NODE_SET"

	// ErrCodeInvalid indicates a definition that is neither a list of names
	// nor a valid query mapping.
	ErrCodeInvalid ErrorCode = "INVALID_NODE_SET"

	// ErrCodeCycle indicates node sets that reference each other.
	ErrCodeCycle ErrorCode = "NODE_SET_CYCLE"

	// ErrCodeMissingProperty indicates a rule that references a property
	// the target population does not have.
	ErrCodeMissingProperty ErrorCode = "MISSING_PROPERTY"
)

// Error is a node-set definition or materialization failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// NodeSet is the node set being defined or materialized.
	NodeSet string

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: node set %q: %s", e.Code, e.NodeSet, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, name, format string, args ...any) *Error {
	return &Error{Code: code, NodeSet: name, Message: fmt.Sprintf(format, args...)}
}

// HasCode returns true if err is or wraps an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsUnknown returns true if err reports an unknown node set.
func IsUnknown(err error) bool {
	return HasCode(err, ErrCodeUnknown)
}

// IsMissingProperty returns true if err reports a property missing from
// the target population.
func IsMissingProperty(err error) bool {
	return HasCode(err, ErrCodeMissingProperty)
}

// IsCycle returns true if err reports node sets that reference each other.
func IsCycle(err error) bool {
	return HasCode(err, ErrCodeCycle)
}
