package itunes

import (
	"errors"
	"fmt"
)

// Exported error variables for better error handling
var (
	ErrScriptFailed = errors.New("JXA script execution failed")
	ErrLaunchFailed = errors.New("application launch failed")
	ErrTimeout      = errors.New("automation call timed out")
	ErrInvalidURL   = errors.New("invalid URL")
)

// Error is returned by every Bridge operation.
type Error struct {
	Op      string    // Operation that failed
	Kind    ErrorKind // Type of error
	Err     error     // Underlying error
	Context map[string]interface{}
}

type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrValidation
	ErrLaunch
	ErrAutomation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrValidation:
		return "validation"
	case ErrLaunch:
		return "launch"
	case ErrAutomation:
		return "automation"
	default:
		return "unknown"
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUnknown
}

func newError(op string, kind ErrorKind, err error, ctx map[string]interface{}) *Error {
	return &Error{Op: op, Kind: kind, Err: err, Context: ctx}
}
