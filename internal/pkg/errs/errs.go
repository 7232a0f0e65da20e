/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error
interface and carries a business code, a user-facing message, the HTTP status that
produced it (when there was one) and an optional underlying cause.
*/
package errs

import (
	"errors"
	"fmt"
	"strings"

	"botclient/internal/pkg/logx"
)

// CustomError is the error structure used throughout the client runtime.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing description. Error() returns exactly this.
	Message string

	// Status is the HTTP status code of the response that produced the error, or 0.
	Status int

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the user-facing message.
func (e *CustomError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError constructs a new *CustomError from a predefined error code.
// The optional details are printf arguments for templates that contain a verb.
// An unknown code yields ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
		}
	}

	customErr := templateErr

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// WithMessage replaces the message when msg is non-empty and returns e.
func (e *CustomError) WithMessage(msg string) *CustomError {
	if msg != "" {
		e.Message = msg
	}
	return e
}

// WithStatus records the HTTP status and returns e.
func (e *CustomError) WithStatus(status int) *CustomError {
	e.Status = status
	return e
}

// WithCause records the underlying error and returns e.
func (e *CustomError) WithCause(err error) *CustomError {
	e.Err = err
	return e
}

// Is reports whether any error in err's chain is a CustomError with the given code.
func Is(err error, code int) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}
