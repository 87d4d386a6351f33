package beam

import "fmt"

// Code is a stable result code shared with the surrounding radio stack.
// The numeric values form an ABI and must not be reordered.
type Code int

const (
	CodeOK Code = iota
	CodeInvalidParam
	CodeOutOfRange
	CodeMemory
	CodeConvergence
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidParam:
		return "invalid_param"
	case CodeOutOfRange:
		return "out_of_range"
	case CodeMemory:
		return "memory"
	case CodeConvergence:
		return "convergence"
	default:
		return "unknown"
	}
}

// Error pairs a result code with a human-readable message. Two Errors match
// under errors.Is when their codes are equal, so callers can test against the
// package sentinels regardless of wrapping.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for the stable code table.
var (
	ErrInvalidParam = &Error{Code: CodeInvalidParam, msg: "invalid parameter"}
	ErrOutOfRange   = &Error{Code: CodeOutOfRange, msg: "coordinate out of range"}
	ErrMemory       = &Error{Code: CodeMemory, msg: "allocation failed"}
	ErrConvergence  = &Error{Code: CodeConvergence, msg: "no peak at or above threshold"}
)

func errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}
