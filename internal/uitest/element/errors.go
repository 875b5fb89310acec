package element

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("element not found")
	ErrAmbiguous       = errors.New("locator matches more than one element")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotSelected     = errors.New("no elements selected")
	ErrNotConfigured   = errors.New("element not configured")
)

// Error reports a failed operation on a named element.
type Error struct {
	Element string
	Op      string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Element, e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// contextCountError is returned while a context locator does not resolve
// to exactly one element.
type contextCountError struct {
	n int
}

func (e *contextCountError) Error() string {
	return fmt.Sprintf("Instead of 1 element found '%d' elements", e.n)
}
