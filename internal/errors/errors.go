// Package errors defines application errors shared by the front-ends and the journal.
package errors

import "fmt"

// Severity ranks how urgently an error needs operator attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an internal message plus the text safe to show a customer.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError reports input the machine cannot interpret, such as an unknown coin.
func NewValidationError(msg string, cause error) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Sorry, I did not understand that. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewStorageError wraps a journal backend failure.
func NewStorageError(backend string, cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("%s journal error: %s", backend, underlyingMsg),
		UserMessage: "Temporary problem, please try again later",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateError reports an operation the machine refused in its current state.
func NewStateError(msg string, cause error) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "The machine cannot do that right now",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       cause,
	}
}

// NewRateLimitError tells the customer to slow down.
func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many button presses. Try again in %d seconds", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
