// Package asserter turns framework failures into errors or test failures.
package asserter

import (
	"errors"
	"fmt"

	"github.com/grez-lucas/uitest/internal/uitest/logger"
	"github.com/stretchr/testify/require"
)

var ErrAssertion = errors.New("assertion failed")

// AssertionError is returned for every failure an Asserter reports.
type AssertionError struct {
	Message string
	Cause   error
}

func (e *AssertionError) Error() string {
	return e.Message
}

func (e *AssertionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrAssertion}
	}
	return []error{ErrAssertion, e.Cause}
}

// Asserter reports framework failures.
type Asserter interface {
	// Exception reports a failure and returns it as an error.
	Exception(format string, args ...any) error
	// SilentException runs fn and reports its error, if any.
	SilentException(fn func() error) error
}

// FailureHook observes every reported failure.
type FailureHook func(err *AssertionError)

// Errors reports failures by logging and returning them.
type Errors struct {
	log   *logger.Logger
	hooks []FailureHook
}

func NewErrors(log *logger.Logger, hooks ...FailureHook) *Errors {
	if log == nil {
		log = logger.Nop()
	}
	return &Errors{log: log, hooks: hooks}
}

// OnFailure registers a hook that runs after each reported failure.
func (a *Errors) OnFailure(h FailureHook) {
	a.hooks = append(a.hooks, h)
}

func (a *Errors) Exception(format string, args ...any) error {
	return a.report(&AssertionError{Message: fmt.Sprintf(format, args...)})
}

func (a *Errors) SilentException(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	var already *AssertionError
	if errors.As(err, &already) {
		return err
	}
	return a.report(&AssertionError{Message: err.Error(), Cause: err})
}

func (a *Errors) report(err *AssertionError) error {
	a.log.Error(logger.Framework, "%s", err.Message)
	for _, h := range a.hooks {
		h(err)
	}
	return err
}

// Testing reports failures to a running test as well, stopping it.
// Must be used from the test goroutine.
type Testing struct {
	*Errors
	t require.TestingT
}

func NewTesting(t require.TestingT, log *logger.Logger, hooks ...FailureHook) *Testing {
	return &Testing{Errors: NewErrors(log, hooks...), t: t}
}

func (a *Testing) Exception(format string, args ...any) error {
	err := a.Errors.Exception(format, args...)
	a.fail(err)
	return err
}

func (a *Testing) SilentException(fn func() error) error {
	err := a.Errors.SilentException(fn)
	if err != nil {
		a.fail(err)
	}
	return err
}

func (a *Testing) fail(err error) {
	if h, ok := a.t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.Fail(a.t, err.Error())
}
