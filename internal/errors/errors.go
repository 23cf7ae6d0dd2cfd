package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an internal message, a user-facing message, and reporting metadata.
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

// NewDeserializationError covers corrupted or unknown persisted conversation records.
func NewDeserializationError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("corrupted conversation state: %s", underlyingMsg),
		UserMessage: "Oops! Seems like we had some issues. I'm going to reboot, sorry!",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       cause,
	}
}

// NewExternalAPIError covers failing collaborator calls (geocoder, carpark search).
func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("external API error: %s", apiName),
		UserMessage: "One of our services is temporarily unavailable, please try again later.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateError covers operations that are impossible in the current conversation state,
// such as searching for carparks before a destination is confirmed.
func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "That doesn't work right now. Type /start to begin a new search.",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// NewTransportError covers failures sending messages back to the user.
func NewTransportError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("transport error: %s", underlyingMsg),
		UserMessage: "",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}
