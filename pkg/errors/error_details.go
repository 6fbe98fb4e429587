package errors

import "errors"

// ErrorDetails represents detailed information about an error.
type ErrorDetails struct {
	// Message (required) is the user-defined error message.
	Message string

	// Code (required) is one of the ErrorCode values.
	Code string

	// Field (optional) is the related field or operation the error occurred on.
	Field string

	// Cause (optional) is the underlying error reported by a driver or client.
	Cause error
}

// NewErrorDetails creates a new ErrorDetails struct with the given parameters.
func NewErrorDetails(message, code, field string) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code,
		Field:   field,
	}
}

// NewErrorDetailsWithCause creates ErrorDetails that keeps the error it was raised from.
func NewErrorDetailsWithCause(message string, code ErrorCode, field string, cause error) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    string(code),
		Field:   field,
		Cause:   cause,
	}
}

// Error() is used to implement the Golang `error` interface.
func (e *ErrorDetails) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *ErrorDetails) Unwrap() error {
	return e.Cause
}

// ErrorCodeEquals checks whether a given `error` carries a specific code anywhere in its chain.
func ErrorCodeEquals(err error, code ErrorCode) bool {
	var details *ErrorDetails
	if !errors.As(err, &details) {
		return false
	}

	return details.Code == string(code)
}
