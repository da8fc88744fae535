package queryir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeUnknownModifier indicates a mapping predicate whose key is not
	// a supported value operator.
	ErrCodeUnknownModifier ErrorCode = "UNKNOWN_MODIFIER"

	// ErrCodeMixedOperators indicates a mapping that mixes value operators
	// with plain keys.
	ErrCodeMixedOperators ErrorCode = "MIXED_OPERATORS"

	// ErrCodeMalformed indicates a value of the wrong shape for its key,
	// such as a non-list $or.
	ErrCodeMalformed ErrorCode = "MALFORMED_QUERY"

	// ErrCodeInvalidRegex indicates a $regex pattern that does not compile.
	ErrCodeInvalidRegex ErrorCode = "INVALID_REGEX"

	// ErrCodeTypeMismatch indicates a predicate that cannot be applied to
	// the column type, such as a scalar against a float column.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnresolvedNodeSet indicates a $node_set clause reached the
	// resolver without being expanded.
	ErrCodeUnresolvedNodeSet ErrorCode = "UNRESOLVED_NODE_SET"
)

// QueryError is a hard query failure. Unlike unknown properties, which
// silently select nothing, a QueryError is always returned to the caller.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path locates the offending clause, e.g. "$or[1].mtype".
	// Empty when the location is unknown.
	Path string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf creates a QueryError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsQueryError returns true if err is or wraps a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// HasCode returns true if err is or wraps a QueryError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// at returns err with path prepended to its location. Non-query errors are
// returned unchanged.
func at(err error, path string) error {
	var qe *QueryError
	if !errors.As(err, &qe) {
		return err
	}
	located := *qe
	located.Path = joinPath(path, qe.Path)
	return &located
}

func joinPath(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	case child[0] == '[':
		return parent + child
	default:
		return parent + "." + child
	}
}
