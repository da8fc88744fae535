package loader

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
)

// Error reports a document that could not be read or decoded.
type Error struct {
	Path    string // file path, or "<inline>"
	Line    int    // 1-based; 0 if unknown
	Column  int    // 1-based; 0 if unknown
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is (or wraps) a *Error.
func IsLoadError(err error) bool {
	var le *Error
	return errors.As(err, &le)
}

// cueError converts a CUE error into an *Error carrying the position of
// its first underlying error.
func cueError(path string, err error) *Error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Path: path, Message: "invalid CUE", Err: err}
	}

	first := errs[0]
	le := &Error{Path: path, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		le.Line = positions[0].Line()
		le.Column = positions[0].Column()
	}
	return le
}
