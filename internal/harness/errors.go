package harness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBinaryNotFound indicates a required tool binary could not be
// resolved through flags, environment, or PATH.
var ErrBinaryNotFound = errors.New("binary not found")

// SetupError marks a failure while bringing up fixture resources, before
// the binary under test ran. Scenarios that hit one are reported as
// errors rather than failures.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("fixture setup: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

func setupErrorf(format string, args ...any) error {
	return &SetupError{Err: fmt.Errorf(format, args...)}
}

// InvocationError marks a CLI invocation that produced no exit status:
// the process could not be started or ran past its timeout.
type InvocationError struct {
	Cmd string
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoking %s: %v", e.Cmd, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// TeardownError collects failures observed while releasing fixture
// resources. Callers report it alongside any earlier scenario outcome so
// that a failed cleanup never hides the failure that preceded it.
type TeardownError struct {
	Errs []error
}

func (e *TeardownError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("fixture teardown: %s", strings.Join(msgs, "; "))
}

func (e *TeardownError) Unwrap() []error {
	return e.Errs
}
