package demoshop

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrParsingFailed      = errors.New("failed to parse shop page")
)

// ShopError describes a failed shop flow.
type ShopError struct {
	Operation string
	Cause     error
	Details   string
}

func (e *ShopError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v - %s", e.Operation, e.Cause, e.Details)
}

func (e *ShopError) Unwrap() error {
	return e.Cause
}

// LoginErrorInfo is the error banner shown by a rejected login.
type LoginErrorInfo struct {
	Code    string
	Message string
}

func (e *LoginErrorInfo) Error() string {
	return fmt.Sprintf("(Code: %s) %s", e.Code, e.Message)
}
