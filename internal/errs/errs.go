package errs

import (
	"context"
	"errors"

	"github.com/playwright-community/playwright-go"
)

// Code is a verification failure code.
type Code string

const (
	InvalidArgument Code = "invalid_argument"
	Setup           Code = "setup"
	Navigation      Code = "navigation"
	Timeout         Code = "timeout"   // navigation, locator wait or context deadline ran out
	Assertion       Code = "assertion" // expectation not met within its bound
	Artifact        Code = "artifact"
	Internal        Code = "internal"
)

// Error is a coded verification error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a coded error with message and cause.
// A Playwright or context timeout cause always produces a Timeout code,
// whatever the caller asked for. Web-first assertions (ExpectVisible and
// friends) report an unmet condition without a timeout cause, so they
// keep the Assertion code.
func Wrap(code Code, message string, cause error) error {
	if isTimeout(cause) {
		code = Timeout
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CodeOf returns the error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	if isTimeout(err) {
		return Timeout
	}
	return Internal
}

// MessageOf returns the outermost coded message.
// Untyped errors report "internal error".
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return "internal error"
}

// Classify returns err unchanged when it is already coded and otherwise
// wraps it with the code inferred from its cause.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return err
	}
	return Wrap(Internal, message, err)
}

// ExitCode maps an error code to a process exit status.
func ExitCode(code Code) int {
	switch code {
	case InvalidArgument:
		return 2
	case Setup:
		return 3
	case Navigation:
		return 4
	case Timeout:
		return 5
	case Assertion:
		return 6
	case Artifact:
		return 7
	default:
		return 1
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, playwright.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
